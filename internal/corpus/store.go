package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/simplerag/simplerag/pkg/postgres"
)

// Store persists raw documents in PostgreSQL so a restarted service can
// rebuild its model from the last loaded corpus. Only raw text is stored;
// the fitted model is always recomputed in memory.
type Store struct {
	client *postgres.Client
	logger *slog.Logger
}

func NewStore(client *postgres.Client) *Store {
	return &Store{
		client: client,
		logger: slog.Default().With("component", "corpus-store"),
	}
}

// EnsureSchema creates the documents table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.client.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			doc_id INTEGER PRIMARY KEY,
			name   TEXT NOT NULL,
			body   TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// Replace swaps the stored corpus for the given documents in one transaction,
// mirroring the engine's replace-on-reload lifecycle.
func (s *Store) Replace(ctx context.Context, docs []Document) error {
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
			return fmt.Errorf("clearing documents: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO documents (doc_id, name, body) VALUES ($1, $2, $3)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()
		for _, doc := range docs {
			if _, err := stmt.ExecContext(ctx, doc.ID, doc.Name, doc.Text); err != nil {
				return fmt.Errorf("inserting document %d: %w", doc.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("corpus persisted", "documents", len(docs))
	return nil
}

// LoadAll returns the persisted corpus ordered by document ID.
func (s *Store) LoadAll(ctx context.Context) ([]Document, error) {
	rows, err := s.client.DB.QueryContext(ctx,
		`SELECT doc_id, name, body FROM documents ORDER BY doc_id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Text); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return docs, nil
}
