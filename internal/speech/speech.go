// Package speech transcribes a single utterance of PCM audio with a cloud
// speech recognition service.
package speech

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned when no endpoint or key is available.
	ErrNotConfigured = errors.New("speech service is not configured")

	// ErrRecognition is the service's own "Error" recognition status.
	ErrRecognition = errors.New("speech service reported a recognition error")
)

// Recognizer turns one utterance of 16 kHz mono signed 16-bit little-endian
// PCM, without a RIFF header, into text. An utterance with no recognizable
// speech yields an empty transcript and no error.
type Recognizer interface {
	Recognize(ctx context.Context, pcm []byte) (string, error)
}
