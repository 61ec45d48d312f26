package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/medscan-health/medscan-api/internal/database"
)

var ErrInvalidPayload = errors.New("invalid report payload")

// StoredReport is an extracted report persisted for a patient
type StoredReport struct {
	ID        uuid.UUID       `json:"id"`
	PatientID uuid.UUID       `json:"patient_id"`
	Data      ExtractedReport `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Repository handles report persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create stores an extracted report for a patient
func (r *Repository) Create(ctx context.Context, patientID uuid.UUID, data ExtractedReport) (*StoredReport, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	dbReport := &database.Report{
		PatientID: patientID,
		Payload:   payload,
	}

	_, err = r.db.NewInsert().
		Model(dbReport).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return mapDBReportToModel(dbReport)
}

// ListByPatient retrieves all reports for a patient, newest first
func (r *Repository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*StoredReport, error) {
	var dbReports []*database.Report
	err := r.db.NewSelect().
		Model(&dbReports).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]*StoredReport, 0, len(dbReports))
	for _, dbr := range dbReports {
		stored, err := mapDBReportToModel(dbr)
		if err != nil {
			return nil, err
		}
		reports = append(reports, stored)
	}
	return reports, nil
}

// mapDBReportToModel converts database model to domain model
func mapDBReportToModel(dbr *database.Report) (*StoredReport, error) {
	var data ExtractedReport
	if err := json.Unmarshal(dbr.Payload, &data); err != nil {
		return nil, fmt.Errorf("failed to decode report payload: %w", err)
	}

	return &StoredReport{
		ID:        dbr.ID,
		PatientID: dbr.PatientID,
		Data:      data,
		CreatedAt: dbr.CreatedAt,
	}, nil
}
