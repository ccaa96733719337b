package navigation

import "path/filepath"

// RootLabel names the filesystem root segment.
const RootLabel = "/"

// Segment is one clickable step of the breadcrumb.
type Segment struct {
	Name string
	Path string
}

// Breadcrumb is rebuilt from scratch on every navigation.
type Breadcrumb struct {
	Segments []Segment
}

// FromPath lists path and each of its ancestors, root first.
func FromPath(path string) Breadcrumb {
	if path == "" {
		return Breadcrumb{}
	}
	path = filepath.Clean(path)

	var chain []string
	for p := path; ; {
		chain = append(chain, p)
		parent := filepath.Dir(p)
		if parent == p || parent == "." {
			break
		}
		p = parent
	}

	segments := make([]Segment, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		p := chain[i]
		name := filepath.Base(p)
		if filepath.Dir(p) == p {
			name = RootLabel
		}
		segments = append(segments, Segment{Name: name, Path: p})
	}
	return Breadcrumb{Segments: segments}
}

// Copy returns segments the caller may keep.
func (b Breadcrumb) Copy() []Segment {
	return append([]Segment(nil), b.Segments...)
}
