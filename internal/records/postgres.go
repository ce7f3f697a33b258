package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/enrichkit/contact-pipeline/internal/contact"
	"github.com/enrichkit/contact-pipeline/pkg/postgres"
)

// PostgresStore stores enriched contacts in the externally provisioned
// enriched_contacts table:
//
//	CREATE TABLE enriched_contacts (
//	    request_id  TEXT        NOT NULL,
//	    record_id   TEXT        NOT NULL,
//	    batch_id    INTEGER     NOT NULL,
//	    fields      JSONB       NOT NULL,
//	    enriched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (request_id, record_id)
//	);
type PostgresStore struct {
	db *postgres.Client
}

// NewPostgresStore creates a PostgresStore over the given client.
func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{db: db}
}

// SaveAll upserts every record inside a single transaction.
func (s *PostgresStore) SaveAll(ctx context.Context, recs []Enriched) error {
	if len(recs) == 0 {
		return nil
	}
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO enriched_contacts (request_id, record_id, batch_id, fields)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (request_id, record_id)
			 DO UPDATE SET batch_id = EXCLUDED.batch_id, fields = EXCLUDED.fields`)
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range recs {
			fields, err := json.Marshal(rec.Fields)
			if err != nil {
				return fmt.Errorf("marshaling record %s: %w", rec.RecordID, err)
			}
			if _, err := stmt.ExecContext(ctx, rec.RequestID, rec.RecordID, rec.BatchID, fields); err != nil {
				return fmt.Errorf("upserting record %s: %w", rec.RecordID, err)
			}
		}
		return nil
	})
}

// ListByRequest returns all enriched records for the request id.
func (s *PostgresStore) ListByRequest(ctx context.Context, requestID string) ([]Enriched, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT record_id, batch_id, fields
		 FROM enriched_contacts
		 WHERE request_id = $1
		 ORDER BY batch_id, record_id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("querying records for %s: %w", requestID, err)
	}
	defer rows.Close()

	var out []Enriched
	for rows.Next() {
		rec := Enriched{RequestID: requestID}
		var fields []byte
		if err := rows.Scan(&rec.RecordID, &rec.BatchID, &fields); err != nil {
			return nil, fmt.Errorf("scanning record for %s: %w", requestID, err)
		}
		rec.Fields = make(contact.Record)
		if err := json.Unmarshal(fields, &rec.Fields); err != nil {
			return nil, fmt.Errorf("unmarshaling record %s: %w", rec.RecordID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records for %s: %w", requestID, err)
	}
	return out, nil
}
