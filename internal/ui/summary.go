package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/cpmv/internal/stats"
)

var (
	colorGreen = lipgloss.Color("#a6e3a1")
	colorRed   = lipgloss.Color("#f38ba8")
	colorMuted = lipgloss.Color("#5a6278")

	styleDone   = lipgloss.NewStyle().Foreground(colorGreen)
	styleFailed = lipgloss.NewStyle().Foreground(colorRed)
	styleLabel  = lipgloss.NewStyle().Foreground(colorMuted)
)

// Summary describes a finished copy or move.
type Summary struct {
	Op     string // "copy" or "move"
	Stats  stats.Snapshot
	Failed bool
	Color  bool
}

// String builds the completion line.
// Format: copy ✓  files 48,917  size 2.1 GiB  avg 641 MB/s  time 3m 17s  skipped 2  errors 0
func (s Summary) String() string {
	snap := s.Stats
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesCopied) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	iconStyle := styleDone
	if s.Failed || snap.FilesVerifyFailed > 0 {
		icon = "✗"
		iconStyle = styleFailed
	}
	if s.Color {
		icon = iconStyle.Render(icon)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", s.Op, icon)
	if s.Op == "move" {
		// A whole-tree rename moves files without visiting them, so a move
		// reports renames and copied files rather than a file total.
		s.field(&b, "renamed", FormatCount(snap.Renames))
		s.field(&b, "copied", FormatCount(snap.FilesCopied))
	} else {
		s.field(&b, "files", FormatCount(snap.FilesCopied))
	}
	s.field(&b, "size", FormatBytes(snap.BytesCopied))
	s.field(&b, "avg", FormatRate(avgSpeed))
	s.field(&b, "time", FormatDuration(snap.Elapsed))
	if s.Op == "move" {
		s.field(&b, "fallbacks", FormatCount(snap.Fallbacks))
	}
	if snap.FilesSkipped > 0 {
		s.field(&b, "skipped", FormatCount(snap.FilesSkipped))
	}
	if snap.FilesVerified > 0 || snap.FilesVerifyFailed > 0 {
		s.field(&b, "verified", FormatCount(snap.FilesVerified))
	}
	s.field(&b, "errors", FormatCount(snap.FilesVerifyFailed))
	return b.String()
}

func (s Summary) field(b *strings.Builder, label, value string) {
	if s.Color {
		label = styleLabel.Render(label)
	}
	fmt.Fprintf(b, "  %s %s", label, value)
}
