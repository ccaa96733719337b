// Package navigation tracks where the user has been: the recent-folder list,
// browser-style back and forward stacks, and the breadcrumb trail.
package navigation

const (
	DefaultMaxEntries = 10
	MinMaxEntries     = 10
	MaxMaxEntries     = 30
)

// History is owned by the foreground and needs no locking.
type History struct {
	entries []string // most recent first, no duplicates
	current string
	back    []string
	forward []string
	max     int
}

func NewHistory(max int) *History {
	h := &History{}
	h.SetMax(max)
	return h
}

// SetMax changes the recent-list bound, clamped to [MinMaxEntries, MaxMaxEntries].
func (h *History) SetMax(max int) {
	switch {
	case max <= 0:
		max = DefaultMaxEntries
	case max < MinMaxEntries:
		max = MinMaxEntries
	case max > MaxMaxEntries:
		max = MaxMaxEntries
	}
	h.max = max
	h.truncate()
}

func (h *History) Max() int { return h.max }

// Push records a visit to path. It moves to the front of the recent list,
// the directory being left lands on the back stack, and the forward stack
// is cleared.
func (h *History) Push(path string) {
	h.remove(path)
	h.entries = append([]string{path}, h.entries...)
	h.truncate()

	if h.current != "" && h.current != path {
		h.back = append(h.back, h.current)
	}
	h.current = path
	h.forward = h.forward[:0]
}

// Current is the most recently visited path.
func (h *History) Current() string { return h.current }

// GoBack pops the back stack. current is pushed onto the forward stack.
// With nothing to go back to it returns false and changes nothing.
func (h *History) GoBack(current string) (string, bool) {
	if len(h.back) == 0 {
		return "", false
	}
	prev := h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]
	h.forward = append(h.forward, current)
	h.current = prev
	return prev, true
}

// GoForward mirrors GoBack.
func (h *History) GoForward(current string) (string, bool) {
	if len(h.forward) == 0 {
		return "", false
	}
	next := h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]
	h.back = append(h.back, current)
	h.current = next
	return next, true
}

func (h *History) CanGoBack() bool    { return len(h.back) > 0 }
func (h *History) CanGoForward() bool { return len(h.forward) > 0 }

// Entries returns a copy of the recent list, most recent first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Restore merges persisted paths ahead of the current entries. Paths for
// which exists reports false are skipped; duplicates keep their first
// position.
func (h *History) Restore(persisted []string, exists func(string) bool) int {
	merged := make([]string, 0, len(persisted)+len(h.entries))
	seen := make(map[string]struct{}, cap(merged))
	restored := 0
	add := func(p string) bool {
		if _, dup := seen[p]; dup {
			return false
		}
		seen[p] = struct{}{}
		merged = append(merged, p)
		return true
	}
	for _, p := range persisted {
		if p == "" || (exists != nil && !exists(p)) {
			continue
		}
		if add(p) {
			restored++
		}
	}
	for _, p := range h.entries {
		add(p)
	}
	h.entries = merged
	h.truncate()
	if restored > len(h.entries) {
		restored = len(h.entries)
	}
	return restored
}

func (h *History) remove(path string) {
	for i, p := range h.entries {
		if p == path {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return
		}
	}
}

func (h *History) truncate() {
	if h.max > 0 && len(h.entries) > h.max {
		h.entries = h.entries[:h.max]
	}
}
