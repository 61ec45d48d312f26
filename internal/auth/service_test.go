package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medscan-health/medscan-api/internal/user"
)

// memStore is an in-memory UserStore for tests
type memStore struct {
	byID map[uuid.UUID]*user.User
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[uuid.UUID]*user.User)}
}

func (s *memStore) Create(ctx context.Context, nu user.NewUser) (*user.User, error) {
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

func (s *memStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (s *memStore) ListByRole(ctx context.Context, role user.Role) ([]*user.User, error) {
	var out []*user.User
	for _, u := range s.byID {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	tokens, err := NewJWTService(testSecret)
	require.NoError(t, err)
	store := newMemStore()
	return NewService(store, tokens, 24*time.Hour), store
}

func TestRegisterDefaultsToPatient(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Register(context.Background(), RegisterInput{
		Email:    "a@b.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, user.RolePatient, created.Role)
	assert.True(t, created.IsActive)
	assert.NotEqual(t, "password123", created.PasswordHash)
	assert.NotContains(t, created.PasswordHash, "password123")
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"missing email", RegisterInput{Password: "password123"}, ErrEmailRequired},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "password123"}, ErrInvalidEmailFormat},
		{"missing password", RegisterInput{Email: "a@b.com"}, ErrPasswordRequired},
		{"short password", RegisterInput{Email: "a@b.com", Password: "short"}, ErrPasswordTooShort},
		{"bad role", RegisterInput{Email: "a@b.com", Password: "password123", Role: "admin"}, ErrInvalidRole},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "otherpassword"})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	// Emails compare case-insensitively
	_, err = svc.Register(ctx, RegisterInput{Email: "A@B.COM", Password: "otherpassword"})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password123", Role: user.RolePatient})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "a@b.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", result.TokenType)
	assert.Equal(t, created.ID, result.User.ID)

	resolved, err := svc.CurrentUser(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", resolved.Email)
	assert.Equal(t, user.RolePatient, resolved.Role)
}

func TestLoginDoesNotLeakWhichFieldWasWrong(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "a@b.com", "wrongpassword")
	_, unknownEmail := svc.Login(ctx, "nobody@b.com", "password123")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginInactiveUser(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)
	store.byID[created.ID].IsActive = false

	_, err = svc.Login(ctx, "a@b.com", "password123")
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestCurrentUserGone(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "a@b.com", "password123")
	require.NoError(t, err)

	delete(store.byID, created.ID)

	_, err = svc.CurrentUser(ctx, result.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestListPatientsRequiresHospital(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	hospital, err := svc.Register(ctx, RegisterInput{Email: "h@b.com", Password: "password123", Role: user.RoleHospital})
	require.NoError(t, err)
	patient, err := svc.Register(ctx, RegisterInput{Email: "p@b.com", Password: "password123", Role: user.RolePatient})
	require.NoError(t, err)

	_, err = svc.ListPatients(ctx, patient)
	assert.ErrorIs(t, err, ErrHospitalOnly)

	patients, err := svc.ListPatients(ctx, hospital)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, patient.ID, patients[0].ID)
}
