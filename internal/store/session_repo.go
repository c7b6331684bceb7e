package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/samber/lo"

	"github.com/abhisek/mathtutor/internal/levels"
	"github.com/abhisek/mathtutor/internal/session"
)

// timeLayout is fixed-width so that TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var sessionColumns = []string{
	"id", "owner_id", "topic", "level", "stage", "status",
	"transcript", "input_transcript", "notes", "equations", "graphing_equations",
	"created_at", "updated_at",
}

// column maps a writable field onto its table column.
type column struct {
	name  string
	value func(*session.Session) (any, error)
}

var fieldColumns = map[Field]column{
	FieldTopic:  {"topic", func(s *session.Session) (any, error) { return s.Topic, nil }},
	FieldLevel:  {"level", func(s *session.Session) (any, error) { return string(s.Level), nil }},
	FieldStage:  {"stage", func(s *session.Session) (any, error) { return string(s.Stage), nil }},
	FieldStatus: {"status", func(s *session.Session) (any, error) { return string(s.Status), nil }},
	FieldNotes:  {"notes", func(s *session.Session) (any, error) { return s.Notes, nil }},
	FieldTranscript: {"transcript", func(s *session.Session) (any, error) {
		return jsonColumn(s.Transcript)
	}},
	FieldInputTranscript: {"input_transcript", func(s *session.Session) (any, error) {
		return jsonColumn(s.InputTranscript)
	}},
	FieldEquations: {"equations", func(s *session.Session) (any, error) {
		return jsonColumn(s.Equations)
	}},
	FieldGraphingEquations: {"graphing_equations", func(s *session.Session) (any, error) {
		return jsonColumn(s.GraphingEquations)
	}},
}

// sessionRepo implements SessionRepo with the ent SQL builder over SQLite.
type sessionRepo struct {
	drv *entsql.Driver
}

func (r *sessionRepo) Create(ctx context.Context, s *session.Session) error {
	if s.ID == "" || s.OwnerID == "" {
		return fmt.Errorf("create session: id and owner are required")
	}
	if err := validate(s); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	if s.Status == "" {
		s.Status = session.StatusActive
	}

	values := []any{s.ID, s.OwnerID}
	for _, f := range WritableFields {
		if f == FieldStatus {
			continue
		}
		v, err := fieldColumns[f].value(s)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f, err)
		}
		values = append(values, v)
	}
	values = append(values, string(s.Status), formatTime(s.CreatedAt), formatTime(s.UpdatedAt))

	cols := []string{"id", "owner_id"}
	for _, f := range WritableFields {
		if f != FieldStatus {
			cols = append(cols, fieldColumns[f].name)
		}
	}
	cols = append(cols, "status", "created_at", "updated_at")

	query, args := builder.Insert("sessions").Columns(cols...).Values(values...).Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Load(ctx context.Context, id, owner string) (*session.Session, error) {
	query, args := builder.Select(sessionColumns...).
		From(builder.Table("sessions")).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", owner))).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query session: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanSession(&rows)
}

func (r *sessionRepo) Save(ctx context.Context, s *session.Session, fields ...Field) (*session.Session, error) {
	if len(fields) == 0 {
		fields = WritableFields
	}
	if err := validate(s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	upd := builder.Update("sessions")
	for _, f := range lo.Uniq(fields) {
		col, ok := fieldColumns[f]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFieldNotAllowed, f)
		}
		v, err := col.value(s)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f, err)
		}
		upd.Set(col.name, v)
	}
	upd.Set("updated_at", formatTime(time.Now().UTC())).
		Where(entsql.And(entsql.EQ("id", s.ID), entsql.EQ("owner_id", s.OwnerID)))

	if err := r.execAffecting(ctx, upd); err != nil {
		return nil, fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return r.Load(ctx, s.ID, s.OwnerID)
}

func (r *sessionRepo) List(ctx context.Context, owner string) ([]SessionSummary, error) {
	query, args := builder.Select(
		"id", "topic", "level", "stage", "status",
		"json_array_length(transcript)", "created_at", "updated_at",
	).
		From(builder.Table("sessions")).
		Where(entsql.EQ("owner_id", owner)).
		OrderBy(entsql.Desc("updated_at")).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			sum                  SessionSummary
			stage, status        string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Topic, &sum.Level, &stage, &status, &sum.Turns, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		sum.Stage = session.Stage(stage)
		sum.Status = session.Status(status)
		var err error
		if sum.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if sum.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (r *sessionRepo) Delete(ctx context.Context, id, owner string) error {
	del := builder.Delete("sessions").
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", owner)))
	if err := r.execAffecting(ctx, del); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (r *sessionRepo) SetStatus(ctx context.Context, id, owner string, status session.Status) error {
	if _, err := session.ParseStatus(string(status)); err != nil {
		return err
	}
	upd := builder.Update("sessions").
		Set("status", string(status)).
		Set("updated_at", formatTime(time.Now().UTC())).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", owner)))
	if err := r.execAffecting(ctx, upd); err != nil {
		return fmt.Errorf("set status of session %s: %w", id, err)
	}
	return nil
}

// execAffecting runs a write and maps zero affected rows to ErrNotFound.
func (r *sessionRepo) execAffecting(ctx context.Context, q entsql.Querier) error {
	query, args := q.Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSession(rows *entsql.Rows) (*session.Session, error) {
	var (
		s                           session.Session
		level, stage, status        string
		transcript, inputTranscript string
		equations, graphs           string
		createdAt, updatedAt        string
	)
	err := rows.Scan(&s.ID, &s.OwnerID, &s.Topic, &level, &stage, &status,
		&transcript, &inputTranscript, &s.Notes, &equations, &graphs,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	s.Level = levels.Tag(level)
	s.Stage = session.Stage(stage)
	s.Status = session.Status(status)

	decode := []struct {
		name string
		raw  string
		dst  any
	}{
		{"transcript", transcript, &s.Transcript},
		{"inputTranscript", inputTranscript, &s.InputTranscript},
		{"equations", equations, &s.Equations},
		{"graphingEquations", graphs, &s.GraphingEquations},
	}
	for _, d := range decode {
		if err := json.Unmarshal([]byte(d.raw), d.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.name, err)
		}
	}

	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func validate(s *session.Session) error {
	if !s.Stage.Valid() {
		return fmt.Errorf("invalid stage %q", s.Stage)
	}
	if s.Level != "" {
		if _, err := levels.Ordinal(s.Level); err != nil {
			return err
		}
	}
	if !session.ValidOpenTurns(s.Transcript) || !session.ValidOpenTurns(s.InputTranscript) {
		return fmt.Errorf("only the final turn may be awaiting a reply")
	}
	return nil
}

// jsonColumn encodes a slice column, storing nil as an empty array.
func jsonColumn[T any](v []T) (any, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}
