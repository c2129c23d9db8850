// Package config carries front-end-only settings: the things a CLI may
// want to override before it calls into the core. The front end resolves a
// Config once and hands it to repo.Init or repo.Open, which copy its fields
// onto the Repository; no core operation loads a config file itself.
package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	AuthorName    string `json:"author_name"`
	DefaultBranch string `json:"default_branch"`
	MetaDirName   string `json:"meta_dir"`
	LogLevel      string `json:"log_level"`
}

func Default() Config {
	return Config{
		AuthorName:    "Anonymous",
		DefaultBranch: "master",
		MetaDirName:   ".minigit",
		LogLevel:      "info",
	}
}

// Load reads a JSON config file at path, overlaying it onto the defaults.
// A missing file is not an error: it just yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
