package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mathtutor/internal/store"
)

// maxBodyBytes caps each stored request and response body. Tutor prompts
// replay the window and notes, so a runaway model can't bloat the audit table.
const maxBodyBytes = 64 << 10

// LoggingProvider records every request into the LLM audit log and emits a
// structured log line per call.
type LoggingProvider struct {
	inner  Provider
	vendor string
	events store.EventRepo
	logger *zap.Logger
}

// WithLogging wraps p. vendor names the configured provider ("groq",
// "openai", ...). A nil repo disables the audit log but keeps the log line.
func WithLogging(p Provider, vendor string, repo store.EventRepo, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{inner: p, vendor: vendor, events: repo, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	ev := l.event(ctx, req, resp, err, time.Since(start))

	fields := []zap.Field{
		zap.String("purpose", ev.Purpose),
		zap.String("session", ev.SessionID),
		zap.String("model", ev.Model),
		zap.Int64("latency_ms", ev.LatencyMs),
		zap.Int("input_tokens", ev.InputTokens),
		zap.Int("output_tokens", ev.OutputTokens),
	}
	if err != nil {
		l.logger.Warn("llm request failed", append(fields, zap.Error(err))...)
	} else {
		l.logger.Debug("llm request", fields...)
	}

	if l.events != nil {
		// Detached from ctx so a cancelled turn still leaves a record.
		if logErr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), ev); logErr != nil {
			l.logger.Warn("failed to record llm event", zap.Error(logErr))
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *LoggingProvider) event(ctx context.Context, req Request, resp *Response, err error, took time.Duration) store.LLMRequestEventData {
	ev := store.LLMRequestEventData{
		SessionID:   SessionFrom(ctx),
		Provider:    l.vendor,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   took.Milliseconds(),
		Success:     err == nil,
		RequestBody: clip(serializeRequest(req)),
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		ev.ResponseBody = clip(string(resp.Content))
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}
	return ev
}

// serializeRequest renders a request as "[role]" blocks, the way the
// llm view command prints it.
func serializeRequest(req Request) string {
	var b strings.Builder
	block := func(label, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", label, body)
	}

	if req.System != "" {
		block(string(RoleSystem), req.System)
	}
	for _, m := range req.Messages {
		block(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			block("schema: "+req.Schema.Name, string(def))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func clip(s string) string {
	if len(s) <= maxBodyBytes {
		return s
	}
	return s[:maxBodyBytes] + "\n…(truncated)"
}
