package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/tw93/probe/internal/app"
	"github.com/tw93/probe/internal/navigation"
)

func (m model) View() string {
	var b strings.Builder
	fmt.Fprintln(&b)

	switch {
	case m.inPicker():
		m.viewPicker(&b)
	case m.frame.View == app.SettingsView:
		m.viewSettings(&b)
	default:
		m.viewScene(&b)
	}

	if m.err != "" {
		fmt.Fprintf(&b, "\n%s\n", redStyle.Render(m.err))
	}
	return b.String()
}

func (m model) viewPicker(b *strings.Builder) {
	fmt.Fprintf(b, "%s\n", titleStyle.Render("Probe"))
	fmt.Fprintf(b, "%s\n\n", mutedStyle.Render("Type a folder path or pick a recent one:"))
	fmt.Fprintf(b, "  Folder: %s%s\n\n", m.input, cursorStyle.Render("_"))

	recent := m.frame.Recent
	if len(recent) == 0 {
		fmt.Fprintln(b, mutedStyle.Render("  No recent folders"))
	}
	for i, path := range recent {
		if i >= recentLimit {
			break
		}
		prefix := "    "
		line := displayPath(path)
		if i == m.cursor && m.input == "" {
			prefix = " " + cursorStyle.Render("▶") + "  "
			line = boldStyle.Render(line)
		}
		fmt.Fprintf(b, "%s%s\n", prefix, line)
	}

	fmt.Fprintf(b, "\n%s\n", mutedStyle.Render("↑↓ pick | Enter open | Esc back"))
}

func (m model) viewSettings(b *strings.Builder) {
	fmt.Fprintf(b, "%s  %s\n\n", titleStyle.Render("Probe"), mutedStyle.Render("Settings"))

	hidden := "off"
	if m.ctrl.ShowHidden() {
		hidden = "on"
	}
	store := "unavailable"
	if m.ctrl.StoreAvailable() {
		store = "ready"
	}
	fmt.Fprintf(b, "  History limit     %s  %s\n", boldStyle.Render(fmt.Sprintf("%2d", m.ctrl.HistoryLimit())), mutedStyle.Render("(10-30)"))
	fmt.Fprintf(b, "  Show hidden files %s\n", boldStyle.Render(hidden))
	fmt.Fprintf(b, "  Size strategy     %s\n", m.ctrl.Strategy())
	fmt.Fprintf(b, "  Persistent cache  %s\n", store)

	fmt.Fprintf(b, "\n%s\n", mutedStyle.Render("+/- history limit | h hidden files | , back"))
}

func (m model) viewScene(b *strings.Builder) {
	f := m.frame
	fmt.Fprintf(b, "%s  %s", titleStyle.Render("Probe"), mutedStyle.Render(displayPath(f.Current)))
	total, pending := sceneTotal(f)
	if pending == 0 {
		fmt.Fprintf(b, "  |  Total: %s", humanizeBytes(total))
	} else {
		fmt.Fprintf(b, "  |  %s %d calculating", cyanStyle.Render(spinnerFrames[m.spinner]), pending)
	}
	fmt.Fprintln(b)
	fmt.Fprintln(b, breadcrumbLine(f.Breadcrumb))
	fmt.Fprintln(b)

	if f.Transition != nil {
		fmt.Fprintf(b, "  %s %s\n", transitionBar(f.Transition.Progress(time.Now())), mutedStyle.Render(m.screen.status))
		return
	}

	if len(f.Bodies) == 0 {
		fmt.Fprintln(b, "  Empty directory")
	}

	maxSize := int64(1)
	for _, body := range f.Bodies {
		if body.Size > maxSize {
			maxSize = body.Size
		}
	}

	end := min(m.offset+entryViewport, len(f.Bodies))
	for idx := m.offset; idx < end; idx++ {
		fmt.Fprintln(b, m.bodyLine(idx, f.Bodies[idx], maxSize, total))
	}
	if end < len(f.Bodies) {
		fmt.Fprintf(b, "    %s\n", mutedStyle.Render(fmt.Sprintf("... %d more below", len(f.Bodies)-end)))
	}
	if f.Overflow > 0 {
		fmt.Fprintf(b, "    %s\n", mutedStyle.Render(fmt.Sprintf("+ %d more items not shown", f.Overflow)))
	}

	if tip, ok := m.ctrl.Tooltip(); ok {
		text := fmt.Sprintf("%s\n%s  %s  modified %s", boldStyle.Render(tip.Name), tip.Kind, tip.Size, tip.Modified)
		fmt.Fprintf(b, "\n%s\n", tooltipStyle.Render(text))
	}

	fmt.Fprintf(b, "\n%s\n", mutedStyle.Render(m.screen.status))
	fmt.Fprintf(b, "%s\n", mutedStyle.Render("↑↓ move | Enter open | ← back | f forward | u up | 1-9 path | Space reset | r refresh | . hidden | , settings | o open | q quit"))
}

func (m model) bodyLine(idx int, body app.Body, maxSize, total int64) string {
	icon := "📄"
	if body.IsDir {
		icon = "📁"
	}
	name := padName(trimName(body.Name), nameWidth)

	var percent float64
	if total > 0 && !body.Pending {
		percent = float64(body.Size) / float64(total) * 100
	}
	bar := coloredProgressBar(body.Size, maxSize, percent)

	size := sizeStyle(percent).Render(fmt.Sprintf("%10s", humanizeBytes(body.Size)))
	if body.Pending {
		size = mutedStyle.Render(fmt.Sprintf("%10s", "pending.."))
	}

	more := ""
	if body.Children > 0 {
		more = mutedStyle.Render(fmt.Sprintf("  ▸ %d", body.Children))
	}

	prefix := "    "
	segment := fmt.Sprintf("%s %s", icon, name)
	if idx == m.cursor {
		prefix = " " + cursorStyle.Render("▶") + "  "
		segment = boldStyle.Render(segment)
	}
	if body.ID == m.frame.Selected {
		segment = selectStyle.Render(segment)
	}
	return fmt.Sprintf("%s%s  %s %s%s", prefix, bar, segment, size, more)
}

func breadcrumbLine(segments []navigation.Segment) string {
	parts := make([]string, 0, len(segments))
	for i, seg := range segments {
		label := fmt.Sprintf("%d:%s", i+1, seg.Name)
		if i == len(segments)-1 {
			label = boldStyle.Render(label)
		} else {
			label = mutedStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return "  " + strings.Join(parts, mutedStyle.Render(" › "))
}

func sceneTotal(f app.Frame) (total int64, pending int) {
	for _, body := range f.Bodies {
		if body.Pending {
			pending++
			continue
		}
		total += body.Size
	}
	return total, pending
}
