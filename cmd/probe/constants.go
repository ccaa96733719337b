package main

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	barWidth      = 24
	nameWidth     = 28
	entryViewport = 12
	recentLimit   = 10
	tickInterval  = 120 * time.Millisecond
	pathEnv       = "PROBE_PATH"
	configEnv     = "PROBE_CONFIG"
)

var spinnerFrames = []string{"|", "/", "-", "\\", "|", "/", "-", "\\"}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	redStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	yellowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	greenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	selectStyle  = lipgloss.NewStyle().Reverse(true)
	tooltipStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)
