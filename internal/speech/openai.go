package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI implements Transcriber and Synthesizer with the OpenAI audio API.
type OpenAI struct {
	client *openai.Client
	cfg    Config
}

// NewOpenAI creates an OpenAI speech client.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required for speech")
	}
	def := DefaultConfig()
	if cfg.STTModel == "" {
		cfg.STTModel = def.STTModel
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = def.TTSModel
	}
	if cfg.Voice == "" {
		cfg.Voice = def.Voice
	}
	if cfg.Filename == "" {
		cfg.Filename = def.Filename
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(config), cfg: cfg}, nil
}

func (o *OpenAI) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyTranscript
	}
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.cfg.STTModel,
		FilePath: o.cfg.Filename,
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

func (o *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.cfg.TTSModel),
		Input:          text,
		Voice:          openai.SpeechVoice(o.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Close()

	b, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	return b, nil
}
