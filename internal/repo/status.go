package repo

import "github.com/MiniGit-AAiT/MiniGit-AAiT/internal/index"

// StatusReport is the three-section report §4.5's status describes.
type StatusReport struct {
	ToBeCommitted []string // "modified: path" / "deleted: path" / "new file: path"
	NotStaged     []string
	Untracked     []string
}

// Status computes the three-section report against HEAD's snapshot and
// the index.
func (r *Repository) Status() (*StatusReport, error) {
	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	headSnap, err := r.headSnapshot()
	if err != nil {
		return nil, err
	}
	working, err := index.ScanWorkingTree(r.WorkDir, r.MetaDirName, ignoreFileName)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{}

	for path, digest := range idx.Staged {
		if headDigest, inHead := headSnap[path]; !inHead {
			report.ToBeCommitted = append(report.ToBeCommitted, "new file: "+path)
		} else if headDigest != digest {
			report.ToBeCommitted = append(report.ToBeCommitted, "modified: "+path)
		}
	}
	for path := range idx.Removed {
		report.ToBeCommitted = append(report.ToBeCommitted, "deleted: "+path)
	}

	for path, headDigest := range headSnap {
		wdDigest, present := working[path]
		if !present {
			if !idx.Removed[path] {
				report.NotStaged = append(report.NotStaged, "deleted: "+path)
			}
			continue
		}
		if staged, ok := idx.Staged[path]; ok {
			if wdDigest != staged {
				report.NotStaged = append(report.NotStaged, "modified: "+path)
			}
		} else if wdDigest != headDigest {
			report.NotStaged = append(report.NotStaged, "modified: "+path)
		}
	}

	for path, wdDigest := range working {
		_, inHead := headSnap[path]
		staged, inStaged := idx.Staged[path]
		if !inHead && !inStaged {
			report.Untracked = append(report.Untracked, path)
		} else if !inHead && staged != wdDigest {
			report.NotStaged = append(report.NotStaged, "modified: "+path)
		}
	}

	return report, nil
}
