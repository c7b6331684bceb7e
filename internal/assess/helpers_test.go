package assess

import (
	"context"
	"encoding/json"

	"github.com/abhisek/mathtutor/internal/llm"
)

// purposeRecorder captures the purpose label a request was sent with.
type purposeRecorder struct {
	purpose string
}

func (p *purposeRecorder) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	p.purpose = llm.PurposeFrom(ctx)
	return &llm.Response{Content: json.RawMessage(`{"requestedTopic":"fractions","explanation":"x"}`)}, nil
}

func (p *purposeRecorder) ModelID() string { return "recorder" }
