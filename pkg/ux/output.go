// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides styled terminal output for the crucible CLI.
//
// Output is styled with lipgloss when writing to a terminal and falls back
// to plain "KEY: value" lines when piped, so scripts can parse it.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text, borders

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Route is applied to grid cells on the solved route.
	Route lipgloss.Style

	Box lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Route:   lipgloss.NewStyle().Bold(true).Foreground(ColorWarning),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Output writes styled or plain messages to a writer.
type Output struct {
	w      io.Writer
	styled bool
}

// NewOutput creates an Output on w. Styling is enabled only when w is a
// terminal and NO_COLOR is unset.
func NewOutput(w io.Writer) *Output {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = IsTerminal(f) && os.Getenv("NO_COLOR") == ""
	}
	return &Output{w: w, styled: styled}
}

// NewPlainOutput creates an Output that never styles.
func NewPlainOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Styled reports whether output is styled.
func (o *Output) Styled() bool { return o.styled }

// Style applies s when styling is enabled.
func (o *Output) Style(s lipgloss.Style, text string) string {
	if !o.styled {
		return text
	}
	return s.Render(text)
}

// Title prints a styled title. Plain output omits titles.
func (o *Output) Title(text string) {
	if !o.styled {
		return
	}
	fmt.Fprintln(o.w, Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func (o *Output) Success(text string) {
	if !o.styled {
		fmt.Fprintf(o.w, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(o.w, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Error prints an error message
func (o *Output) Error(text string) {
	if !o.styled {
		fmt.Fprintf(o.w, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(o.w, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Field prints an aligned "key: value" line.
func (o *Output) Field(key string, value any) {
	if !o.styled {
		fmt.Fprintf(o.w, "%s: %v\n", key, value)
		return
	}
	fmt.Fprintf(o.w, "%s %v\n", Styles.Muted.Render(fmt.Sprintf("%-12s", key+":")), value)
}

// Box prints content in a rounded box. Plain output prints content as is.
func (o *Output) Box(title, content string) {
	content = strings.TrimRight(content, "\n")
	if !o.styled {
		fmt.Fprintln(o.w, content)
		return
	}
	body := content
	if title != "" {
		body = Styles.Title.Render(title) + "\n" + content
	}
	fmt.Fprintln(o.w, Styles.Box.Render(body))
}
