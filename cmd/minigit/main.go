// cmd/minigit/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/config"
	vcserrors "github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/logging"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/repo"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/watch"
)

var rootCmd = &cobra.Command{
	Use:   "minigit",
	Short: "minigit is a miniature content-addressed version control system",
	Long: `minigit tracks snapshots of a working directory under a hidden metadata
directory, supporting staging, commits, branching, checkout, status and
three-way merge with conflict reporting.`,
}

var watchFlag bool

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create an empty repository in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			cfg, logger, err := loadFrontend()
			if err != nil {
				return err
			}
			r, err := repo.Init(dir, cfg, logger)
			if err != nil {
				return err
			}
			defer r.Close()
			fmt.Println("Initialized empty minigit repository in", r.MetaDir)
			return nil
		},
	}

	var addCmd = &cobra.Command{
		Use:   "add [paths...]",
		Short: "Stage files for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()
			if err := r.Add(args); err != nil {
				return err
			}
			fmt.Println("Staged", len(args), "path(s)")
			return nil
		},
	}

	var message string
	var commitCmd = &cobra.Command{
		Use:   "commit",
		Short: "Record a new commit from the staged tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()
			digest, err := r.Commit(message, r.AuthorName)
			if err != nil {
				return err
			}
			fmt.Printf("[%s] %s\n", digest.Short(), message)
			return nil
		},
	}
	commitCmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	commitCmd.MarkFlagRequired("message")

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show commit history from HEAD",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()
			history, err := r.Log()
			if err != nil {
				return err
			}
			header := color.New(color.FgCyan)
			for _, c := range history {
				header.Printf("commit %s\n", c.Digest)
				if len(c.Parents) > 0 {
					fmt.Print("Parents:")
					for _, p := range c.Parents {
						fmt.Print(" ", p.Short())
					}
					fmt.Println()
				}
				fmt.Printf("Author: %s\nDate:   %s\n\n    %s\n\n", c.Author, c.Timestamp, c.Message)
			}
			return nil
		},
	}

	var branchCmd = &cobra.Command{
		Use:   "branch <name>",
		Short: "Create a new branch pointing at HEAD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()
			if err := r.Branch(args[0]); err != nil {
				return err
			}
			fmt.Println("Created branch", args[0])
			return nil
		},
	}

	var lsBranchesCmd = &cobra.Command{
		Use:   "ls-branches",
		Short: "List branches, marking the active one",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()
			branches, detached, err := r.ListBranches()
			if err != nil {
				return err
			}
			active := color.New(color.FgGreen)
			if detached != nil {
				active.Printf("* (HEAD detached at %s)\n", (*detached).Short())
			}
			for _, b := range branches {
				if b.Active {
					active.Printf("* %s\n", b.Name)
				} else {
					fmt.Println("  " + b.Name)
				}
			}
			return nil
		},
	}

	var checkoutCmd = &cobra.Command{
		Use:   "checkout <ref>",
		Short: "Switch the working tree to a branch or commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()
			if err := r.Checkout(args[0]); err != nil {
				return err
			}
			fmt.Println("Switched to", args[0])
			return nil
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show staged, unstaged and untracked changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			if watchFlag {
				ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
				defer cancel()
				return watch.Run(ctx, r, r.Logger, printStatus)
			}

			report, err := r.Status()
			if err != nil {
				return err
			}
			printStatus(report)
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&watchFlag, "watch", false, "keep re-printing status as the working tree changes")

	var mergeCmd = &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge another branch into the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			result, err := r.Merge(args[0])
			if err != nil {
				return err
			}
			switch result.Outcome {
			case repo.MergeUpToDate:
				fmt.Println("Already up to date.")
			case repo.MergeFastForward:
				fmt.Println("Fast-forward to", result.Commit.Short())
			case repo.MergeCommitted:
				fmt.Println("Merge commit", result.Commit.Short())
			}
			return nil
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(lsBranchesCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mergeCmd)
}

func loadFrontend() (config.Config, *logging.Logger, error) {
	cfg, err := config.Load("minigit.config.json")
	if err != nil {
		return cfg, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return cfg, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, logger, nil
}

func openRepo() (*repo.Repository, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	cfg, logger, err := loadFrontend()
	if err != nil {
		return nil, err
	}
	return repo.Open(dir, cfg, logger)
}

func printStatus(report *repo.StatusReport) {
	staged := color.New(color.FgGreen)
	unstaged := color.New(color.FgRed)
	untracked := color.New(color.FgYellow)
	header := color.New(color.FgCyan)

	if len(report.ToBeCommitted) > 0 {
		header.Println("Changes to be committed:")
		for _, l := range report.ToBeCommitted {
			staged.Println("\t" + l)
		}
	}
	if len(report.NotStaged) > 0 {
		header.Println("Changes not staged for commit:")
		for _, l := range report.NotStaged {
			unstaged.Println("\t" + l)
		}
	}
	if len(report.Untracked) > 0 {
		header.Println("Untracked files:")
		for _, l := range report.Untracked {
			untracked.Println("\t" + l)
		}
	}
	if len(report.ToBeCommitted) == 0 && len(report.NotStaged) == 0 && len(report.Untracked) == 0 {
		fmt.Println("nothing to commit, working tree clean")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if ve, ok := err.(*vcserrors.Error); ok {
			fmt.Fprintln(os.Stderr, ve.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
