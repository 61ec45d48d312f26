package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/medscan-health/medscan-api/internal/auth"
	"github.com/medscan-health/medscan-api/internal/httputil"
	"github.com/medscan-health/medscan-api/internal/logging"
	"github.com/medscan-health/medscan-api/internal/user"
)

// Store defines the persistence operations the report handlers need
type Store interface {
	Create(ctx context.Context, patientID uuid.UUID, data ExtractedReport) (*StoredReport, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*StoredReport, error)
}

var _ Store = (*Repository)(nil)

// Handler contains HTTP handlers for report endpoints
type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// CreateRequest represents the report upload body
type CreateRequest struct {
	PatientID uuid.UUID       `json:"patient_id"`
	Report    ExtractedReport `json:"report"`
}

// Create stores an extracted report for a patient
// @Summary      Store an extracted report
// @Description  Attach extracted lab data to a patient account. Hospital role required.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateRequest true "Patient ID and extracted data"
// @Success      201 {object} StoredReport
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid, expired or missing token"
// @Failure      403 {object} httputil.ErrorResponse "Caller is not a hospital"
// @Router       /reports [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.GetCurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	if current.Role != user.RoleHospital {
		logger.Warn("report upload denied", "user_id", current.ID, "role", current.Role)
		httputil.RespondErrorWithCode(w, "hospital access required", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid report request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.PatientID == uuid.Nil {
		httputil.RespondErrorWithCode(w, "patient_id is required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	stored, err := h.store.Create(r.Context(), req.PatientID, req.Report)
	if err != nil {
		if errors.Is(err, ErrInvalidPayload) {
			httputil.RespondErrorWithCode(w, "invalid report payload", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
			return
		}
		logger.Error("failed to store report", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to store report", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("report stored", "report_id", stored.ID, "patient_id", stored.PatientID)

	httputil.RespondJSON(w, stored, http.StatusCreated)
}

// List returns stored reports
// @Summary      List reports
// @Description  Patients list their own reports; hospitals pass ?patient_id= to read a patient's reports.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        patient_id query string false "Patient ID (hospital callers only)"
// @Success      200 {array} StoredReport
// @Failure      400 {object} httputil.ErrorResponse "Missing or malformed patient_id"
// @Failure      401 {object} httputil.ErrorResponse "Invalid, expired or missing token"
// @Failure      403 {object} httputil.ErrorResponse "Patient requesting another patient's reports"
// @Router       /reports [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.GetCurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	patientID := current.ID
	if raw := r.URL.Query().Get("patient_id"); raw != "" {
		requested, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondErrorWithCode(w, "malformed patient_id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
			return
		}
		// Patients may only read their own reports
		if current.Role != user.RoleHospital && requested != current.ID {
			logger.Warn("report listing denied", "user_id", current.ID, "requested_patient", requested)
			httputil.RespondErrorWithCode(w, "hospital access required", httputil.CodeForbidden, http.StatusForbidden)
			return
		}
		patientID = requested
	} else if current.Role == user.RoleHospital {
		httputil.RespondErrorWithCode(w, "patient_id is required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	reports, err := h.store.ListByPatient(r.Context(), patientID)
	if err != nil {
		logger.Error("failed to list reports", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list reports", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, reports, http.StatusOK)
}
