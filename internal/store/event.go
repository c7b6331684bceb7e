package store

import (
	"context"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// Sequence streams.
const sequenceLLMEvents = "llm_events"

// sequenceCounter hands out a monotonic number per named stream. Audit
// rows are ordered by it rather than by row id so that ordering survives
// pruning and re-import.
type sequenceCounter struct {
	mu   sync.Mutex
	drv  *entsql.Driver
	name string
}

func newSequenceCounter(drv *entsql.Driver, name string) *sequenceCounter {
	return &sequenceCounter{drv: drv, name: name}
}

// Next returns the stream's next value, starting at 1.
func (c *sequenceCounter) Next(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seed, args := builder.Insert("sequences").
		Columns("name", "next_val").
		Values(c.name, 1).
		OnConflict(entsql.DoNothing()).
		Query()
	if err := c.drv.Exec(ctx, seed, args, nil); err != nil {
		return 0, fmt.Errorf("seed sequence %s: %w", c.name, err)
	}

	var rows entsql.Rows
	err := c.drv.Query(ctx,
		`UPDATE sequences SET next_val = next_val + 1 WHERE name = ? RETURNING next_val - 1`,
		[]any{c.name}, &rows)
	if err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", c.name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("advance sequence %s: no row", c.name)
	}
	var n int64
	if err := rows.Scan(&n); err != nil {
		return 0, fmt.Errorf("scan sequence %s: %w", c.name, err)
	}
	return n, nil
}
