package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Reasons a discovered entry is not processed
const (
	SkipDirectory = "not a file"
	SkipExtension = "unexpected extension"
)

// FileInfo represents information about a discovered input entry
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
	// SkipReason is empty for entries that should be extracted
	SkipReason string
}

// Accepted reports whether the entry should be extracted
func (f FileInfo) Accepted() bool {
	return f.SkipReason == ""
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindReports lists every entry of dir sorted by name. Regular files whose
// extension matches ext (case-insensitively) are accepted; everything else
// is returned with a SkipReason so callers can report it.
func (d *Discovery) FindReports(dir, ext string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		fi := FileInfo{
			Path:  filepath.Join(fullPath, name),
			Name:  name,
			IsDir: entry.IsDir(),
		}
		if info, err := entry.Info(); err == nil {
			fi.Size = info.Size()
			fi.ModTime = info.ModTime()
		}

		switch {
		case !entry.Type().IsRegular():
			fi.SkipReason = SkipDirectory
		case !strings.EqualFold(filepath.Ext(name), ext):
			fi.SkipReason = SkipExtension
		}
		files = append(files, fi)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// AcceptedPaths returns the paths of the accepted entries, in order
func AcceptedPaths(files []FileInfo) []string {
	var paths []string
	for _, f := range files {
		if f.Accepted() {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// HasEntries reports whether dir contains anything at all
func (d *Discovery) HasEntries(dir string) (bool, error) {
	entries, err := os.ReadDir(d.resolve(dir))
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
