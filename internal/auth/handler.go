package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/medscan-health/medscan-api/internal/httputil"
	"github.com/medscan-health/medscan-api/internal/logging"
	"github.com/medscan-health/medscan-api/internal/ratelimit"
	"github.com/medscan-health/medscan-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	DOB      *string `json:"dob,omitempty"` // YYYY-MM-DD or RFC 3339
	Sex      *string `json:"sex,omitempty"`
}

// LoginResponse represents the login response with token and user info
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        user.PublicUser `json:"user"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new hospital or patient account. Role defaults to patient.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} user.PublicUser
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already registered"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	dob, err := parseDOB(req.DOB)
	if err != nil {
		logger.Warn("registration failed: invalid dob", "error", err.Error())
		httputil.RespondErrorWithCode(w, "dob must be YYYY-MM-DD or RFC 3339", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newUser, err := h.service.Register(r.Context(), RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     user.Role(strings.ToLower(req.Role)),
		FullName: req.FullName,
		DOB:      dob,
		Sex:      req.Sex,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email already registered")
			httputil.RespondErrorWithCode(w, "email already registered", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrEmailRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidRole):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidRole, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID, "role", newUser.Role)

	httputil.RespondJSON(w, newUser.Public(), http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with a form-encoded username (email) and password, receive a bearer token and the user.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username formData string true "Email address"
// @Param        password formData string true "Password"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Incorrect credentials or inactive user"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	// OAuth2 password-flow style form body: username carries the email
	if err := r.ParseForm(); err != nil {
		logger.Warn("invalid login form body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	logger = logger.WithFields(map[string]any{"email": email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	result, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "incorrect email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrInactiveUser):
			logger.Warn("login failed: inactive user")
			httputil.RespondErrorWithCode(w, "inactive user", httputil.CodeInactiveUser, http.StatusUnauthorized)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in successfully", "user_id", result.User.ID)

	httputil.RespondJSON(w, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		User:        result.User.Public(),
	}, http.StatusOK)
}

// Me returns the current authenticated user
// @Summary      Get current user
// @Description  Resolve the bearer token to its user account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.PublicUser
// @Failure      401 {object} httputil.ErrorResponse "Invalid, expired or missing token"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	current, ok := GetCurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	httputil.RespondJSON(w, current.Public(), http.StatusOK)
}

// Patients lists all patient accounts
// @Summary      List patients
// @Description  List all patient accounts. Hospital role required.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} user.PublicUser
// @Failure      401 {object} httputil.ErrorResponse "Invalid, expired or missing token"
// @Failure      403 {object} httputil.ErrorResponse "Caller is not a hospital"
// @Router       /auth/patients [get]
func (h *Handler) Patients(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := GetCurrentUser(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	patients, err := h.service.ListPatients(r.Context(), current)
	if err != nil {
		if errors.Is(err, ErrHospitalOnly) {
			logger.Warn("patient listing denied", "user_id", current.ID, "role", current.Role)
			httputil.RespondErrorWithCode(w, "hospital access required", httputil.CodeForbidden, http.StatusForbidden)
			return
		}
		logger.Error("failed to list patients", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list patients", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	views := make([]user.PublicUser, 0, len(patients))
	for _, p := range patients {
		views = append(views, p.Public())
	}

	httputil.RespondJSON(w, views, http.StatusOK)
}

// parseDOB accepts a date-only or RFC 3339 value
func parseDOB(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (behind proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fallback to RemoteAddr, which is "IP:port"
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
