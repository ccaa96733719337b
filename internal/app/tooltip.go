package app

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Tooltip is the text shown for the hovered or selected body.
type Tooltip struct {
	Name     string
	Size     string
	Modified string
	Kind     string
}

// Tooltip describes the hovered body, falling back to the selected one.
func (c *Controller) Tooltip() (Tooltip, bool) {
	id := c.hovered
	if id == 0 {
		id = c.selected
	}
	body, ok := c.scene.byID[id]
	if !ok {
		return Tooltip{}, false
	}
	return describe(*body, c.now()), true
}

func describe(b Body, now time.Time) Tooltip {
	t := Tooltip{Name: b.Name, Kind: "file"}
	switch {
	case b.Star:
		t.Kind = "current directory"
	case b.IsDir:
		t.Kind = "directory"
	}

	switch {
	case b.Pending:
		t.Size = "calculating..."
	case b.Star:
		t.Size = "-"
	default:
		t.Size = humanize.IBytes(uint64(b.Size))
	}

	if b.ModTime.IsZero() {
		t.Modified = "unknown"
	} else {
		t.Modified = humanize.RelTime(b.ModTime, now, "ago", "from now")
	}
	return t
}
