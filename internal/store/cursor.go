package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

const cursorBatch = 200

type rawDoc struct {
	id   string
	data []byte
}

// cursor iterates a store in primary-key order, fetching batches so that
// records can be updated between reads without holding an open result set.
type cursor struct {
	tx    *sql.Tx
	store string

	buf  []rawDoc
	pos  int
	last string
	done bool
	cur  rawDoc
	err  error
}

func newCursor(tx *sql.Tx, store string) *cursor {
	return &cursor{tx: tx, store: store}
}

// Next advances to the next record, fetching a new batch when needed.
func (c *cursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if c.pos >= len(c.buf) {
		if c.done {
			return false
		}
		if err := c.fetch(ctx); err != nil {
			c.err = err
			return false
		}
		if len(c.buf) == 0 {
			return false
		}
	}
	c.cur = c.buf[c.pos]
	c.pos++
	c.last = c.cur.id
	return true
}

func (c *cursor) fetch(ctx context.Context) error {
	q := fmt.Sprintf(`SELECT id, data FROM %s WHERE id > ? ORDER BY id LIMIT ?`, c.store)
	rows, err := c.tx.QueryContext(ctx, q, c.last, cursorBatch)
	if err != nil {
		return fmt.Errorf("cursor %s: %w", c.store, err)
	}
	defer rows.Close()

	c.buf = c.buf[:0]
	c.pos = 0
	for rows.Next() {
		var d rawDoc
		if err := rows.Scan(&d.id, &d.data); err != nil {
			return fmt.Errorf("cursor %s: %w", c.store, err)
		}
		c.buf = append(c.buf, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("cursor %s: %w", c.store, err)
	}
	if len(c.buf) < cursorBatch {
		c.done = true
	}
	return nil
}

// ID returns the primary key of the current record.
func (c *cursor) ID() string { return c.cur.id }

// Value decodes the current record. Numbers are kept as json.Number so that
// rewriting a record never changes their representation.
func (c *cursor) Value() (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(c.cur.data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("cursor %s/%s: decode: %w", c.store, c.cur.id, err)
	}
	return doc, nil
}

// Update replaces the current record with doc.
func (c *cursor) Update(ctx context.Context, doc map[string]any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cursor %s/%s: encode: %w", c.store, c.cur.id, err)
	}
	q := fmt.Sprintf(`UPDATE %s SET data = ? WHERE id = ?`, c.store)
	if _, err := c.tx.ExecContext(ctx, q, string(data), c.cur.id); err != nil {
		return fmt.Errorf("cursor %s/%s: update: %w", c.store, c.cur.id, err)
	}
	return nil
}

// Err returns the first error hit while iterating.
func (c *cursor) Err() error { return c.err }
