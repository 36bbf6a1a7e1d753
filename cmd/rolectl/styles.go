package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent      = lipgloss.Color("#8BC34A")
	warning     = lipgloss.Color("#FFC107")
	destructive = lipgloss.Color("#e53935")
	muted       = lipgloss.Color("#6b7280")

	groupStyle  = lipgloss.NewStyle().Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	infoStyle   = lipgloss.NewStyle().Foreground(accent)
	warnStyle   = lipgloss.NewStyle().Foreground(warning)
	errorStyle  = lipgloss.NewStyle().Foreground(destructive)
)

const wordWrap = 100

// printSink writes notifications as one styled line each.
type printSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newPrintSink(w io.Writer) *printSink {
	return &printSink{w: w}
}

func (p *printSink) Notify(_ context.Context, level, msg string) {
	var line string
	switch level {
	case "error":
		line = errorStyle.Render("✗ " + msg)
	case "warn":
		line = warnStyle.Render("! " + msg)
	default:
		line = infoStyle.Render("✓ " + msg)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, line)
}

// renderMarkdown prints md through glamour unless raw is set.
func renderMarkdown(w io.Writer, md string, raw bool) error {
	if raw {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}
