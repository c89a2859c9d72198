// Package terminal provides utilities for terminal operations such as clearing text.
package terminal

import (
	"math"
	"os"

	"atomicgo.dev/cursor"
	"golang.org/x/term"
)

// IsInteractive reports whether both stdin and stdout are terminals, so
// prompts can be shown and answered.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Width returns the terminal width, or 80 when it cannot be determined.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// LinesFor returns how many terminal lines textLength characters occupy.
func LinesFor(textLength, width int) int {
	if width <= 0 {
		width = 80
	}
	n := int(math.Ceil(float64(textLength) / float64(width)))
	if n < 1 {
		n = 1
	}
	return n
}

// ClearPreviousLines clears text from the terminal that was previously printed.
// After Enter the cursor sits on a new line below the input, so one extra line
// is cleared.
func ClearPreviousLines(textLength int) {
	linesToClear := LinesFor(textLength, Width()) + 1
	for i := 0; i < linesToClear; i++ {
		cursor.StartOfLine()
		cursor.ClearLine()
		if i < linesToClear-1 {
			cursor.Up(1)
		}
	}
}
