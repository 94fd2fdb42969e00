// Package terminal provides small helpers for interactive terminal input.
package terminal

import (
	"math"
	"os"

	"atomicgo.dev/cursor"
	"golang.org/x/term"
)

// LinesUsed returns how many terminal rows textLength characters occupy at
// the given width, counting the empty row left after Enter.
func LinesUsed(textLength, width int) int {
	if width <= 0 {
		width = 80
	}
	lines := int(math.Ceil(float64(textLength) / float64(width)))
	if lines < 1 {
		lines = 1
	}
	return lines + 1
}

// ClearPreviousLines erases a prompt and its answer from the terminal.
func ClearPreviousLines(textLength int) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	n := LinesUsed(textLength, width)
	for i := 0; i < n; i++ {
		cursor.StartOfLine()
		cursor.ClearLine()
		if i < n-1 {
			cursor.Up(1)
		}
	}
}
