package record

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record exists for a patient.
var ErrNotFound = errors.New("patient record not found")

// Repository stores canonical records as handed off by the ingestion layer.
// The timeline engine never touches a Repository: it only ever receives a
// fully loaded PatientRecord value.
type Repository interface {
	Save(ctx context.Context, rec *PatientRecord) error
	GetByPatient(ctx context.Context, patientID string) (*PatientRecord, error)
	List(ctx context.Context, limit, offset int) ([]*PatientRecord, int, error)
	Delete(ctx context.Context, patientID string) error
}
