package display

import (
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const DefaultWidth = 80

// Wrap word-wraps text to DefaultWidth, preserving ANSI escape sequences.
func Wrap(text string) string {
	return wordwrap.String(text, DefaultWidth)
}

// Block word-wraps text to width and indents every resulting line by pad
// spaces.
func Block(text string, width int, pad uint) string {
	if width <= int(pad) {
		return indent.String(text, pad)
	}
	return indent.String(wordwrap.String(text, width-int(pad)), pad)
}
