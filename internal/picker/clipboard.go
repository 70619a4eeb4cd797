package picker

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrNoClipboard is returned by the copy operations when no clipboard is
// available.
var ErrNoClipboard = errors.New("clipboard is not available")

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the desktop clipboard.
type SystemClipboard struct{}

// WriteAll copies text to the system clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrNoClipboard
	}
	return clipboard.WriteAll(text)
}

// DefaultClipboard returns SystemClipboard when the platform supports it, and
// nil otherwise.
func DefaultClipboard() Clipboard {
	if clipboard.Unsupported {
		return nil
	}
	return SystemClipboard{}
}
