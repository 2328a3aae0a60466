// Package cli provides colored terminal output for the nsipack command.
package cli

import (
	"os"
	"runtime"

	"golang.org/x/term"
)

type style string

const (
	reset   style = "\033[0m"
	red     style = "\033[31m"
	green   style = "\033[32m"
	yellow  style = "\033[33m"
	magenta style = "\033[35m"
	cyan    style = "\033[36m"
	bold    style = "\033[1m"
)

// ColorsEnabled controls whether output is colorized. It is detected at
// startup and can be overridden with --no-color.
var ColorsEnabled = detectColors()

// detectColors honors NO_COLOR (https://no-color.org/) and requires stdout
// to be a terminal. Windows 10+ consoles accept ANSI sequences once a
// terminal is attached, so no extra console-mode dance is needed.
func detectColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	if runtime.GOOS == "windows" {
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
	return true
}

// DisableColors turns off colored output.
func DisableColors() {
	ColorsEnabled = false
}

// EnableColors re-runs detection and enables colors if the terminal supports them.
func EnableColors() {
	ColorsEnabled = detectColors()
}

func paint(s style, text string) string {
	if !ColorsEnabled {
		return text
	}
	return string(s) + text + string(reset)
}

// Error formats text in red.
func Error(text string) string { return paint(red, text) }

// Success formats text in green.
func Success(text string) string { return paint(green, text) }

// Warning formats text in yellow.
func Warning(text string) string { return paint(yellow, text) }

// Info formats text in cyan.
func Info(text string) string { return paint(cyan, text) }

// Bold formats text in bold.
func Bold(text string) string { return paint(bold, text) }

// Filename formats a file path in cyan.
func Filename(text string) string { return paint(cyan, text) }

// Number formats a numeric value in magenta.
func Number(text string) string { return paint(magenta, text) }
