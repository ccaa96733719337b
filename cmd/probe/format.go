package main

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

func displayPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return strings.Replace(path, home, "~", 1)
	}
	return path
}

func humanizeBytes(size int64) string {
	if size < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(size))
}

// trimName cuts name to nameWidth terminal cells, ending in "..." when cut.
func trimName(name string) string {
	const ellipsis = "..."
	if lipgloss.Width(name) <= nameWidth {
		return name
	}
	limit := nameWidth - lipgloss.Width(ellipsis)
	var b strings.Builder
	width := 0
	for _, r := range name {
		w := lipgloss.Width(string(r))
		if width+w > limit {
			break
		}
		b.WriteRune(r)
		width += w
	}
	return b.String() + ellipsis
}

func padName(name string, targetWidth int) string {
	current := lipgloss.Width(name)
	if current >= targetWidth {
		return name
	}
	return name + strings.Repeat(" ", targetWidth-current)
}

// sizeStyle colors by share of the total.
func sizeStyle(percent float64) lipgloss.Style {
	switch {
	case percent >= 50:
		return redStyle
	case percent >= 20:
		return yellowStyle
	case percent >= 5:
		return cyanStyle
	default:
		return greenStyle
	}
}

func coloredProgressBar(value, max int64, percent float64) string {
	if max <= 0 || value <= 0 {
		return mutedStyle.Render(strings.Repeat("░", barWidth))
	}
	filled := int((value * int64(barWidth)) / max)
	if filled > barWidth {
		filled = barWidth
	}
	if filled == 0 {
		filled = 1
	}
	return sizeStyle(percent).Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

// transitionBar draws eased camera progress in [0, 1].
func transitionBar(progress float64) string {
	filled := int(progress * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	return cyanStyle.Render(strings.Repeat("▓", filled)) + mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}
