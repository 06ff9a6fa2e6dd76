package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgRepo stores canonical records as JSONB, one row per patient. The record
// is an opaque normalized document to the store; all interpretation belongs
// to the engine.
type pgRepo struct{ pool *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) Repository {
	return &pgRepo{pool: pool}
}

// Schema is the store's table definition, applied by the migrate command.
const Schema = `
CREATE TABLE IF NOT EXISTS patient_record (
	patient_id TEXT PRIMARY KEY,
	record     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

func (r *pgRepo) Save(ctx context.Context, rec *PatientRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO patient_record (patient_id, record, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (patient_id) DO UPDATE SET record = $2, updated_at = NOW()`,
		rec.ID, payload)
	return err
}

func (r *pgRepo) GetByPatient(ctx context.Context, patientID string) (*PatientRecord, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT record FROM patient_record WHERE patient_id = $1`, patientID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec PatientRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", patientID, err)
	}
	return &rec, nil
}

func (r *pgRepo) List(ctx context.Context, limit, offset int) ([]*PatientRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient_record`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT record FROM patient_record
		ORDER BY patient_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*PatientRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, 0, err
		}
		var rec PatientRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, 0, err
		}
		out = append(out, &rec)
	}
	return out, total, rows.Err()
}

func (r *pgRepo) Delete(ctx context.Context, patientID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patient_record WHERE patient_id = $1`, patientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
