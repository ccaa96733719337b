package app

import "time"

// AppState is the top-level lifecycle.
type AppState int

const (
	NoFolder AppState = iota
	Loading
	Viewing
)

func (s AppState) String() string {
	switch s {
	case NoFolder:
		return "no-folder"
	case Loading:
		return "loading"
	case Viewing:
		return "viewing"
	}
	return "unknown"
}

// ViewingMode is only meaningful while Viewing.
type ViewingMode int

const (
	Idle ViewingMode = iota
	Animating
)

func (m ViewingMode) String() string {
	if m == Animating {
		return "animating"
	}
	return "idle"
}

// MainView is what the main content area shows. Only SceneView accepts
// hover, selection and drilldown.
type MainView int

const (
	SceneView MainView = iota
	SettingsView
)

// TransitionKind tells the renderer which camera move to play.
type TransitionKind int

const (
	Drilldown TransitionKind = iota + 1
	ReturnToCenter
)

// Point is a position in scene space, passed through to the renderer.
type Point struct {
	X, Y, Z float64
}

// Transition is a camera move in progress.
type Transition struct {
	Kind     TransitionKind
	Target   Point
	Started  time.Time
	Duration time.Duration
}

// Progress is the eased completion of t at now, in [0, 1].
func (t Transition) Progress(now time.Time) float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(t.Started)) / float64(t.Duration)
	if p >= 1 {
		return 1
	}
	if p <= 0 {
		return 0
	}
	inv := 1 - p
	return 1 - inv*inv*inv
}

func (t Transition) done(now time.Time) bool {
	return now.Sub(t.Started) >= t.Duration
}
