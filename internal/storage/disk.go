package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Usage reports the on-disk footprint of the dashboard's files.
type Usage struct {
	DatabaseBytes int64 `json:"database_bytes"`
	DatasetBytes  int64 `json:"dataset_bytes"`
}

// Total returns the combined size in bytes.
func (u Usage) Total() int64 { return u.DatabaseBytes + u.DatasetBytes }

// MeasureUsage sizes the SQLite database at dbPath (including its -wal and -shm
// files) and every dataset file.
func MeasureUsage(dbPath string, datasetPaths ...string) (Usage, error) {
	var u Usage
	var err error
	if dbPath != "" {
		if u.DatabaseBytes, err = DiskUsageBytes(dbPath, dbPath+"-wal", dbPath+"-shm"); err != nil {
			return Usage{}, err
		}
	}
	if u.DatasetBytes, err = DiskUsageBytes(datasetPaths...); err != nil {
		return Usage{}, err
	}
	return u, nil
}

// DiskUsageBytes returns the total size in bytes of paths. Directories are summed
// recursively; empty and missing paths count as zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}

		info, err := os.Stat(clean)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(clean, func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
