package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/deckcfg/internal/model"
)

// Revision is one accepted save of a document.
type Revision struct {
	Seq      int64
	Name     string
	Revision string
	Body     []byte
}

func domainFor(name string) string {
	switch name {
	case model.DocConfiguration:
		return model.DomainConfiguration
	case model.DocBindings:
		return model.DomainBindings
	default:
		return "deckcfg/" + name + "/v" + model.DocumentVersion
	}
}

// Load returns the current body of a document, or *model.NotFoundError.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE name = ?`, name,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Document: name}
	}
	if err != nil {
		return nil, &model.TransportError{Op: "load " + name, Err: err}
	}
	return []byte(body), nil
}

// Save stores body as the current revision of a document and appends it to
// the history. Saving the current revision again is a no-op. Returns the
// revision and whether anything was written.
func (s *Store) Save(ctx context.Context, name string, body []byte) (string, bool, error) {
	if !json.Valid(body) {
		return "", false, &model.TransportError{Op: "save " + name, Err: errors.New("body is not valid JSON")}
	}
	rev := model.Revision(domainFor(name), body)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, &model.TransportError{Op: "save " + name, Err: err}
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT revision FROM documents WHERE name = ?`, name).Scan(&current)
	switch {
	case err == nil && current == rev:
		return rev, false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return "", false, &model.TransportError{Op: "save " + name, Err: err}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO document_history (name, revision, body)
		VALUES (?, ?, ?)
	`, name, rev, string(body))
	if err != nil {
		return "", false, &model.TransportError{Op: "save " + name, Err: err}
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", false, &model.TransportError{Op: "save " + name, Err: err}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (name, body, revision, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			body = excluded.body,
			revision = excluded.revision,
			seq = excluded.seq
	`, name, string(body), rev, seq)
	if err != nil {
		return "", false, &model.TransportError{Op: "save " + name, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return "", false, &model.TransportError{Op: "save " + name, Err: err}
	}
	return rev, true, nil
}

// History returns up to limit revisions of a document, newest first.
// limit <= 0 returns all.
func (s *Store) History(ctx context.Context, name string, limit int) ([]Revision, error) {
	query := `
		SELECT seq, name, revision, body
		FROM document_history
		WHERE name = ?
		ORDER BY seq DESC`
	args := []any{name}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", name, err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var r Revision
		var body string
		if err := rows.Scan(&r.Seq, &r.Name, &r.Revision, &body); err != nil {
			return nil, fmt.Errorf("history %s: %w", name, err)
		}
		r.Body = []byte(body)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history %s: %w", name, err)
	}
	return out, nil
}

// LoadConfiguration implements the session backend.
func (s *Store) LoadConfiguration(ctx context.Context) ([]byte, error) {
	return s.Load(ctx, model.DocConfiguration)
}

// SaveConfiguration implements the session backend.
func (s *Store) SaveConfiguration(ctx context.Context, data []byte) error {
	_, _, err := s.Save(ctx, model.DocConfiguration, data)
	return err
}

// LoadBindings implements the session backend.
func (s *Store) LoadBindings(ctx context.Context) ([]byte, error) {
	return s.Load(ctx, model.DocBindings)
}

// SaveBindings implements the session backend.
func (s *Store) SaveBindings(ctx context.Context, data []byte) error {
	_, _, err := s.Save(ctx, model.DocBindings, data)
	return err
}
