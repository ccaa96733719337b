package app

import (
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/tw93/probe/internal/navigation"
)

// EntityID identifies a rendered body. It is derived from the body's path,
// so a size result can always be matched back to whatever body currently
// shows that path. Zero means "none".
type EntityID uint64

func EntityFor(path string) EntityID {
	return EntityID(xxhash.Sum64String(path))
}

// Body is one rendered item: the current directory (Star) or one of its
// children.
type Body struct {
	ID       EntityID
	Name     string
	Path     string
	Size     int64
	ModTime  time.Time
	IsDir    bool
	Star     bool
	Slot     int  // orbital position among displayed children
	Pending  bool // size still being calculated
	Children int  // visible grandchildren, 0 hides the "more below" ring
}

// Frame is a read-only snapshot handed to the renderer and UI.
type Frame struct {
	State      AppState
	Mode       ViewingMode
	View       MainView
	Current    string
	Star       Body
	Bodies     []Body
	Overflow   int
	Breadcrumb []navigation.Segment
	Recent     []string
	Hovered    EntityID
	Selected   EntityID
	Transition *Transition
}

// Body looks up a body in the frame.
func (f Frame) Body(id EntityID) (Body, bool) {
	if id != 0 && f.Star.ID == id {
		return f.Star, true
	}
	for _, b := range f.Bodies {
		if b.ID == id {
			return b, true
		}
	}
	return Body{}, false
}

// scene is the controller's mutable view of what is spawned.
type scene struct {
	star     *Body
	bodies   []*Body
	byPath   map[string]*Body
	byID     map[EntityID]*Body
	overflow int
}

func newScene() *scene {
	return &scene{
		byPath: make(map[string]*Body),
		byID:   make(map[EntityID]*Body),
	}
}

func (s *scene) add(b *Body) {
	if b.Star {
		s.star = b
	} else {
		s.bodies = append(s.bodies, b)
	}
	s.byPath[b.Path] = b
	s.byID[b.ID] = b
}

func (s *scene) empty() bool {
	return s.star == nil && len(s.bodies) == 0
}

func (s *scene) pending() int {
	n := 0
	for _, b := range s.bodies {
		if b.Pending {
			n++
		}
	}
	return n
}
