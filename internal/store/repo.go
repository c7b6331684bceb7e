package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/mathtutor/internal/session"
)

var (
	// ErrNotFound is returned when no session matches the (id, owner) pair.
	ErrNotFound = errors.New("session not found")

	// ErrFieldNotAllowed is returned when a save names a field outside the
	// writable set.
	ErrFieldNotAllowed = errors.New("field not allowed")
)

// Field names a writable session column.
type Field string

const (
	FieldTopic             Field = "topic"
	FieldLevel             Field = "level"
	FieldStage             Field = "stage"
	FieldTranscript        Field = "transcript"
	FieldInputTranscript   Field = "inputTranscript"
	FieldEquations         Field = "equations"
	FieldGraphingEquations Field = "graphingEquations"
	FieldNotes             Field = "notes"
	FieldStatus            Field = "status"
)

// WritableFields lists every field a save may touch.
var WritableFields = []Field{
	FieldTopic,
	FieldLevel,
	FieldStage,
	FieldTranscript,
	FieldInputTranscript,
	FieldEquations,
	FieldGraphingEquations,
	FieldNotes,
	FieldStatus,
}

// TurnFields are the fields a committed conversational turn writes.
var TurnFields = []Field{
	FieldTopic,
	FieldLevel,
	FieldStage,
	FieldTranscript,
	FieldInputTranscript,
	FieldNotes,
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID        string
	Topic     string
	Level     string
	Stage     session.Stage
	Status    session.Status
	Turns     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionRepo persists tutoring sessions scoped by owner.
type SessionRepo interface {
	// Create stores a new session.
	Create(ctx context.Context, s *session.Session) error

	// Load returns the session with id owned by owner, or ErrNotFound.
	Load(ctx context.Context, id, owner string) (*session.Session, error)

	// Save writes the named fields of s (all writable fields when none are
	// named) as one conditional update keyed by (id, owner) and returns the
	// stored document.
	Save(ctx context.Context, s *session.Session, fields ...Field) (*session.Session, error)

	// List returns the owner's sessions, most recently updated first.
	List(ctx context.Context, owner string) ([]SessionSummary, error)

	// Delete removes a session.
	Delete(ctx context.Context, id, owner string) error

	// SetStatus changes a session's lifecycle status.
	SetStatus(ctx context.Context, id, owner string, status session.Status) error
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	Before    int64     // sequence < Before
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
	Purpose   string
	SessionID string
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	SessionID    string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
