// Package fsread lists directories and measures them the slow, synchronous way.
package fsread

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const hiddenPrefix = "."

// FileEntry is one child produced by a single directory listing.
// Directories always carry Size 0 here; their real size is computed elsewhere.
type FileEntry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Reader reads directory listings. The zero value hides dotfiles.
type Reader struct {
	ShowHidden bool
}

func (r Reader) visible(name string) bool {
	return r.ShowHidden || !strings.HasPrefix(name, hiddenPrefix)
}

// ReadDirectory lists the immediate children of path, directories first and
// then case-insensitively by name. An unreadable directory yields an empty
// listing; unreadable children are skipped.
func (r Reader) ReadDirectory(path string) []FileEntry {
	children, err := os.ReadDir(path)
	if err != nil && len(children) == 0 {
		return nil
	}

	entries := make([]FileEntry, 0, len(children))
	for _, child := range children {
		name := child.Name()
		if !r.visible(name) {
			continue
		}
		info, err := child.Info()
		if err != nil {
			continue
		}
		entry := FileEntry{
			Name:    name,
			Path:    filepath.Join(path, name),
			ModTime: info.ModTime(),
			IsDir:   info.IsDir(),
		}
		if !entry.IsDir {
			entry.Size = info.Size()
		}
		entries = append(entries, entry)
	}

	SortEntries(entries)
	return entries
}

// SortEntries orders directories before files, then by name ignoring case.
func SortEntries(entries []FileEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if la != lb {
			return la < lb
		}
		return a.Name < b.Name
	})
}

// CountItems returns the number of visible children of path (one level).
func (r Reader) CountItems(path string) int {
	children, err := os.ReadDir(path)
	if err != nil && len(children) == 0 {
		return 0
	}
	count := 0
	for _, child := range children {
		if r.visible(child.Name()) {
			count++
		}
	}
	return count
}

// CalculateSize walks path recursively and sums regular-file sizes.
// Unreadable subtrees are skipped. It is expensive: keep it off the
// foreground for anything but tiny trees.
func CalculateSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
