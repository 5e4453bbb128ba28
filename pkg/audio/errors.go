// ABOUTME: Error taxonomy shared by codec engines and the transcoder
// ABOUTME: Sentinel errors matched with errors.Is
package audio

import "errors"

var (
	// ErrAgain means the caller must drain pending output before retrying.
	ErrAgain = errors.New("again")

	// ErrUnsupported means a codec or parameter combination cannot be handled.
	ErrUnsupported = errors.New("unsupported")
)
