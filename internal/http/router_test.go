package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/medscan-health/medscan-api/internal/auth"
	"github.com/medscan-health/medscan-api/internal/config"
	apihttp "github.com/medscan-health/medscan-api/internal/http"
	"github.com/medscan-health/medscan-api/internal/logging"
	"github.com/medscan-health/medscan-api/internal/ratelimit"
	"github.com/medscan-health/medscan-api/internal/report"
	"github.com/medscan-health/medscan-api/internal/user"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// memUserStore is an in-memory auth.UserStore
type memUserStore struct {
	byID map[uuid.UUID]*user.User
}

func (s *memUserStore) Create(ctx context.Context, nu user.NewUser) (*user.User, error) {
	email := strings.ToLower(strings.TrimSpace(nu.Email))
	for _, u := range s.byID {
		if u.Email == email {
			return nil, user.ErrDuplicateEmail
		}
	}
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		FullName:     nu.FullName,
		IsActive:     true,
		DOB:          nu.DOB,
		Sex:          nu.Sex,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.byID[u.ID] = u
	return u, nil
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (s *memUserStore) ListByRole(ctx context.Context, role user.Role) ([]*user.User, error) {
	var out []*user.User
	for _, u := range s.byID {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

// memReportStore is an in-memory report.Store
type memReportStore struct {
	byPatient map[uuid.UUID][]*report.StoredReport
}

func (s *memReportStore) Create(ctx context.Context, patientID uuid.UUID, data report.ExtractedReport) (*report.StoredReport, error) {
	stored := &report.StoredReport{ID: uuid.New(), PatientID: patientID, Data: data, CreatedAt: time.Now()}
	s.byPatient[patientID] = append(s.byPatient[patientID], stored)
	return stored, nil
}

func (s *memReportStore) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*report.StoredReport, error) {
	return s.byPatient[patientID], nil
}

func newTestRouter(t *testing.T, limit int64) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := ratelimit.NewLimiterWithOptions(redisClient, limit, 15*time.Minute)

	tokens, err := auth.NewJWTService(testSecret)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	logger := logging.NewLogger(true)
	users := &memUserStore{byID: make(map[uuid.UUID]*user.User)}
	service := auth.NewService(users, tokens, 24*time.Hour)
	authHandler := auth.NewHandler(service, limiter, logger)
	authMiddleware := auth.NewMiddleware(service)
	reportHandler := report.NewHandler(&memReportStore{byPatient: make(map[uuid.UUID][]*report.StoredReport)}, logger)

	cfg := &config.Config{}
	cfg.Server.Env = "test"

	return apihttp.NewRouter(cfg, authHandler, authMiddleware, reportHandler, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func doLogin(t *testing.T, router http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, 100)

	res := doJSON(t, router, http.MethodGet, "/health", "", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health body: %s", res.Body.String())
	}
}

func TestRegisterLoginMeFlow(t *testing.T) {
	router := newTestRouter(t, 100)

	res := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"email":"a@b.com","password":"password1","role":"patient"}`, "")
	if res.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if strings.Contains(res.Body.String(), "password") {
		t.Fatalf("register response leaks password material: %s", res.Body.String())
	}

	// Duplicate email, different case
	res = doJSON(t, router, http.MethodPost, "/auth/register",
		`{"email":"A@B.com","password":"password1"}`, "")
	if res.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", res.Code)
	}

	res = doLogin(t, router, "a@b.com", "password1")
	if res.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var login struct {
		AccessToken string          `json:"access_token"`
		TokenType   string          `json:"token_type"`
		User        user.PublicUser `json:"user"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if login.TokenType != "bearer" {
		t.Fatalf("expected bearer token type, got %q", login.TokenType)
	}
	if login.User.Email != "a@b.com" || login.User.Role != user.RolePatient {
		t.Fatalf("unexpected user view: %+v", login.User)
	}

	res = doJSON(t, router, http.MethodGet, "/auth/me", "", login.AccessToken)
	if res.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", res.Code)
	}
	var me user.PublicUser
	if err := json.Unmarshal(res.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if me.Email != "a@b.com" {
		t.Fatalf("expected a@b.com, got %s", me.Email)
	}
}

func TestLoginErrorsAreIndistinguishable(t *testing.T) {
	router := newTestRouter(t, 100)

	res := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"email":"a@b.com","password":"password1"}`, "")
	if res.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", res.Code)
	}

	wrongPassword := doLogin(t, router, "a@b.com", "wrongpass1")
	unknownEmail := doLogin(t, router, "nobody@b.com", "password1")

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("error bodies differ:\n%s\n%s", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestMeRejectsBadTokens(t *testing.T) {
	router := newTestRouter(t, 100)

	res := doJSON(t, router, http.MethodGet, "/auth/me", "", "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", res.Code)
	}

	res = doJSON(t, router, http.MethodGet, "/auth/me", "", "garbage")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", res.Code)
	}

	// Token signed with another key
	otherTokens, err := auth.NewJWTService([]byte("fedcba9876543210fedcba9876543210"))
	if err != nil {
		t.Fatal(err)
	}
	forged, err := otherTokens.CreateToken(uuid.New(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	res = doJSON(t, router, http.MethodGet, "/auth/me", "", forged)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("forged token: expected 401, got %d", res.Code)
	}
}

func TestPatientsEndpointRoleCheck(t *testing.T) {
	router := newTestRouter(t, 100)

	for _, body := range []string{
		`{"email":"hospital@x.com","password":"password1","role":"hospital","full_name":"City Hospital"}`,
		`{"email":"patient@x.com","password":"password1","role":"patient","dob":"1990-04-02","sex":"F"}`,
	} {
		res := doJSON(t, router, http.MethodPost, "/auth/register", body, "")
		if res.Code != http.StatusCreated {
			t.Fatalf("register: expected 201, got %d: %s", res.Code, res.Body.String())
		}
	}

	patientLogin := doLogin(t, router, "patient@x.com", "password1")
	hospitalLogin := doLogin(t, router, "hospital@x.com", "password1")

	var patientTok, hospitalTok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(patientLogin.Body.Bytes(), &patientTok); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(hospitalLogin.Body.Bytes(), &hospitalTok); err != nil {
		t.Fatal(err)
	}

	res := doJSON(t, router, http.MethodGet, "/auth/patients", "", patientTok.AccessToken)
	if res.Code != http.StatusForbidden {
		t.Fatalf("patient caller: expected 403, got %d", res.Code)
	}

	res = doJSON(t, router, http.MethodGet, "/auth/patients", "", hospitalTok.AccessToken)
	if res.Code != http.StatusOK {
		t.Fatalf("hospital caller: expected 200, got %d", res.Code)
	}

	var patients []user.PublicUser
	if err := json.Unmarshal(res.Body.Bytes(), &patients); err != nil {
		t.Fatalf("decode patients: %v", err)
	}
	if len(patients) != 1 || patients[0].Email != "patient@x.com" {
		t.Fatalf("unexpected patients listing: %+v", patients)
	}
}

func TestLoginRateLimited(t *testing.T) {
	router := newTestRouter(t, 2)

	for i := 0; i < 2; i++ {
		res := doLogin(t, router, "nobody@x.com", "password1")
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, res.Code)
		}
	}

	res := doLogin(t, router, "nobody@x.com", "password1")
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", res.Code)
	}
}
