// Package speech converts student audio to text and tutor text to audio.
// Both directions are presentational: the tutoring core only ever sees
// text.
package speech

import (
	"context"
	"errors"
)

// ErrEmptyTranscript is returned when audio transcribes to nothing.
var ErrEmptyTranscript = errors.New("empty transcript")

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Config selects the speech models.
type Config struct {
	APIKey  string
	BaseURL string

	STTModel string
	TTSModel string
	Voice    string

	// Filename is the name the uploaded audio is given; its extension
	// tells the service how the audio is encoded.
	Filename string
}

// DefaultConfig returns Whisper for transcription and tts-1/alloy for
// synthesis.
func DefaultConfig() Config {
	return Config{
		STTModel: "whisper-1",
		TTSModel: "tts-1",
		Voice:    "alloy",
		Filename: "audio.webm",
	}
}
