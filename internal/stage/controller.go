package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mathtutor/internal/assess"
	"github.com/abhisek/mathtutor/internal/levels"
	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/prompt"
	"github.com/abhisek/mathtutor/internal/session"
	"github.com/abhisek/mathtutor/internal/speech"
	"github.com/abhisek/mathtutor/internal/store"
	"github.com/abhisek/mathtutor/internal/visuals"
	"github.com/abhisek/mathtutor/internal/window"
)

// Config holds tutor response settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults for tutor responses.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// Deps are the controller's collaborators. Transcriber, Synthesizer and
// Visuals are optional.
type Deps struct {
	Store    SessionStore
	Provider llm.Provider
	Assessor *assess.Assessor
	Window   *window.Window

	Transcriber speech.Transcriber
	Synthesizer speech.Synthesizer
	Visuals     *visuals.Extractor

	Logger *zap.Logger
}

// Controller processes student turns.
type Controller struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	busy map[string]struct{}
}

// New creates a Controller.
func New(deps Deps, cfg Config) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		busy:   make(map[string]struct{}),
	}
}

// step is the outcome of dispatching one turn: either a new session to
// commit with the tutor's utterance, or an invalid reply.
type step struct {
	next      *session.Session
	utterance string
	invalid   bool
}

// Turn runs one student turn to completion. On any error the stored
// session is left as it was.
func (c *Controller) Turn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	if !c.acquire(in.SessionID) {
		return nil, ErrTurnInProgress
	}
	defer c.release(in.SessionID)

	ctx = llm.WithSession(ctx, in.SessionID)
	logger := c.logger.With(zap.String("session", in.SessionID))

	text, err := c.input(ctx, in)
	if err != nil {
		return nil, err
	}

	s, err := c.deps.Store.Load(ctx, in.SessionID, in.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	from := s.Stage

	var st step
	switch {
	case s.AwaitingTopic():
		st, err = c.setupTopic(ctx, s, text)
	case s.Stage == session.StageSetup:
		st, err = c.setupLevel(ctx, s, text)
	default:
		st, err = c.learn(ctx, s, text)
	}
	if err != nil {
		logger.Warn("turn failed", zap.String("stage", string(from)), zap.Error(err))
		return nil, err
	}

	if st.invalid {
		logger.Info("reply not understood", zap.String("stage", string(from)))
		return &TurnResult{
			Utterance:  RepeatPrompt,
			ValidInput: false,
			Stage:      s.Stage,
			Level:      s.Level,
			Topic:      s.Topic,
			Audio:      c.speak(ctx, logger, RepeatPrompt),
			Session:    s,
		}, nil
	}

	saved, err := c.deps.Store.Save(ctx, st.next, store.TurnFields...)
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	logger.Info("turn committed",
		zap.String("from", string(from)),
		zap.String("to", string(saved.Stage)),
		zap.String("level", string(saved.Level)),
		zap.Int("window", len(saved.InputTranscript)),
	)

	result := &TurnResult{
		Utterance:  st.utterance,
		ValidInput: true,
		Stage:      saved.Stage,
		Level:      saved.Level,
		Topic:      saved.Topic,
		Session:    saved,
	}
	result.Audio = c.speak(ctx, logger, st.utterance)

	if saved.Stage != session.StageSetup && c.deps.Visuals != nil {
		if updated := c.refreshVisuals(ctx, logger, saved); updated != nil {
			result.Session = updated
		}
	}
	return result, nil
}

// Busy reports whether a turn is in flight for the session.
func (c *Controller) Busy(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.busy[sessionID]
	return ok
}

func (c *Controller) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.busy[id]; ok {
		return false
	}
	c.busy[id] = struct{}{}
	return true
}

func (c *Controller) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, id)
}

// input resolves the turn's text, transcribing audio when no text is given.
func (c *Controller) input(ctx context.Context, in TurnInput) (string, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" && len(in.Audio) > 0 {
		if c.deps.Transcriber == nil {
			return "", fmt.Errorf("%w: speech input is not configured", ErrNoInput)
		}
		t, err := c.deps.Transcriber.Transcribe(ctx, in.Audio)
		if errors.Is(err, speech.ErrEmptyTranscript) {
			return "", ErrNoInput
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrAssessmentFailed, err)
		}
		text = strings.TrimSpace(t)
	}
	if text == "" {
		return "", ErrNoInput
	}
	return text, nil
}

// setupTopic handles the reply to the greeting.
func (c *Controller) setupTopic(ctx context.Context, s *session.Session, text string) (step, error) {
	switch o := c.deps.Assessor.ExtractTopic(ctx, text).(type) {
	case assess.TopicFound:
		q := topicQuestion(o.Topic)
		return step{next: c.scaffold(s, o.Topic, text, q), utterance: q}, nil
	case assess.Invalid:
		return step{invalid: true}, nil
	case assess.Failed:
		return step{}, fmt.Errorf("%w: %w", ErrAssessmentFailed, o.Err)
	default:
		return step{}, fmt.Errorf("%w: unexpected outcome %T", ErrAssessmentFailed, o)
	}
}

// setupLevel handles the reply that establishes the baseline level.
func (c *Controller) setupLevel(ctx context.Context, s *session.Session, text string) (step, error) {
	o := c.deps.Assessor.Assess(ctx, assess.Input{
		Utterance:        text,
		Topic:            s.Topic,
		Window:           s.InputTranscript,
		AllowTopicChange: true,
	})
	switch o := o.(type) {
	case assess.Assessed:
		return c.respond(ctx, s, text, o, session.StageLearn)
	case assess.TopicChangeRequested:
		u := topicChange(o.Topic)
		return step{next: c.scaffold(s, o.Topic, text, u), utterance: u}, nil
	case assess.Invalid:
		return step{invalid: true}, nil
	case assess.Failed:
		return step{}, fmt.Errorf("%w: %w", ErrAssessmentFailed, o.Err)
	default:
		return step{}, fmt.Errorf("%w: unexpected outcome %T", ErrAssessmentFailed, o)
	}
}

// learn handles every reply once a level is established.
func (c *Controller) learn(ctx context.Context, s *session.Session, text string) (step, error) {
	o := c.deps.Assessor.Assess(ctx, assess.Input{
		Utterance:  text,
		Topic:      s.Topic,
		PriorLevel: s.Level,
		Window:     s.InputTranscript,
	})
	switch o := o.(type) {
	case assess.Assessed:
		next := session.StageLearn
		if levels.IsMastery(o.Level) {
			next = session.StagePractice
		}
		return c.respond(ctx, s, text, o, next)
	case assess.Invalid:
		return step{invalid: true}, nil
	case assess.Failed:
		return step{}, fmt.Errorf("%w: %w", ErrAssessmentFailed, o.Err)
	default:
		return step{}, fmt.Errorf("%w: unexpected outcome %T", ErrAssessmentFailed, o)
	}
}

// scaffold resets both transcripts to the greeting answered by text and an
// open tutor question.
func (c *Controller) scaffold(s *session.Session, topic, text, question string) *session.Session {
	now := c.now()
	turns := []session.Turn{
		{Tutor: session.Greeting, Student: text, Timestamp: now},
		{Tutor: question, Timestamp: now},
	}
	next := s.Clone()
	next.Topic = topic
	next.Notes = ""
	next.Transcript = turns
	next.InputTranscript = session.CloneTurns(turns)
	return next
}

// respond records the reply, generates the tutor's answer and returns the
// session to commit.
func (c *Controller) respond(ctx context.Context, s *session.Session, text string, a assess.Assessed, stage session.Stage) (step, error) {
	at := c.now()
	st, res, err := c.deps.Window.Record(ctx, window.State{
		Topic: s.Topic,
		Notes: s.Notes,
		Turns: s.InputTranscript,
	}, text, at)
	if err != nil {
		return step{}, fmt.Errorf("record turn: %w", err)
	}

	req, err := prompt.Response(prompt.ResponseInput{
		Topic:       s.Topic,
		Window:      st.Turns,
		Level:       a.Level,
		Explanation: a.Explanation,
		Notes:       st.Notes,
		Practice:    stage == session.StagePractice,
	})
	if err != nil {
		return step{}, fmt.Errorf("build response: %w", err)
	}

	resp, err := c.deps.Provider.Generate(llm.WithPurpose(ctx, req.Purpose), req.LLM(c.cfg.MaxTokens, c.cfg.Temperature))
	if err != nil {
		return step{}, fmt.Errorf("generate response: %w", err)
	}
	utterance := strings.TrimSpace(resp.Text())
	if utterance == "" {
		return step{}, ErrEmptyResponse
	}

	now := c.now()
	st = c.deps.Window.Append(st, utterance, now)

	next := s.Clone()
	next.Transcript = append(session.AnswerOpen(next.Transcript, text, at), session.Turn{Tutor: utterance, Timestamp: now})
	next.InputTranscript = st.Turns
	next.Notes = st.Notes
	next.Level = a.Level
	next.Stage = stage

	if res.Pruned {
		c.logger.Debug("window pruned", zap.String("session", s.ID), zap.Int("evicted", res.Evicted))
	}
	return step{next: next, utterance: utterance}, nil
}

// speak synthesizes text. Failures are logged and never fail the turn.
func (c *Controller) speak(ctx context.Context, logger *zap.Logger, text string) []byte {
	if c.deps.Synthesizer == nil {
		return nil
	}
	audio, err := c.deps.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		logger.Warn("speech synthesis failed", zap.Error(err))
		return nil
	}
	return audio
}

// refreshVisuals regenerates the display aids for a committed turn and
// saves them separately. It returns nil when nothing was saved.
func (c *Controller) refreshVisuals(ctx context.Context, logger *zap.Logger, s *session.Session) *session.Session {
	aids, err := c.deps.Visuals.Extract(ctx, s.Topic, s.InputTranscript)
	if err != nil {
		logger.Warn("visual aids failed", zap.Error(err))
		return nil
	}

	next := s.Clone()
	next.Equations = aids.Equations
	next.GraphingEquations = aids.Graphs
	saved, err := c.deps.Store.Save(ctx, next, store.FieldEquations, store.FieldGraphingEquations)
	if err != nil {
		logger.Warn("saving visual aids failed", zap.Error(err))
		return nil
	}
	return saved
}
