// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the Pathprobe CLI.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Pathprobe color palette - deep ocean teals and arctic waters.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	// Semantic colors
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#2C4A54")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title       lipgloss.Style
	Bold        lipgloss.Style
	Muted       lipgloss.Style
	Success     lipgloss.Style
	Warning     lipgloss.Style
	Error       lipgloss.Style
	Unreachable lipgloss.Style
	Box         lipgloss.Style
}{
	Title:       lipgloss.NewStyle().Bold(true).Foreground(ColorTealPrimary),
	Bold:        lipgloss.NewStyle().Bold(true),
	Muted:       lipgloss.NewStyle().Foreground(ColorMuted),
	Success:     lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:     lipgloss.NewStyle().Foreground(ColorWarning),
	Error:       lipgloss.NewStyle().Foreground(ColorError),
	Unreachable: lipgloss.NewStyle().Bold(true).Foreground(ColorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSlate).
		Padding(0, 1),
}

// PrintTitle prints a styled section title.
func PrintTitle(text string) {
	fmt.Println(Styles.Title.Render(text))
}

// PrintSuccess prints a success line with a check mark.
func PrintSuccess(text string) {
	fmt.Println(Styles.Success.Render("✓ " + text))
}

// PrintWarning prints a warning line.
func PrintWarning(text string) {
	fmt.Println(Styles.Warning.Render("⚠ " + text))
}

// PrintError prints an error line to stderr.
func PrintError(text string) {
	fmt.Fprintln(os.Stderr, Styles.Error.Render("✗ "+text))
}

// PrintMuted prints secondary information.
func PrintMuted(text string) {
	fmt.Println(Styles.Muted.Render(text))
}
