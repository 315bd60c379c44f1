//go:build nocgo

package audio

import "fmt"

// OpenOutput always fails in builds without cgo.
func OpenOutput(sampleRate int) (Output, error) {
	return nil, fmt.Errorf("%w: built without cgo", ErrUnavailable)
}
