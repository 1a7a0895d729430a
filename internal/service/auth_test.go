package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/advyta/dashboard/internal/apperror"
	"github.com/advyta/dashboard/internal/auth"
	"github.com/advyta/dashboard/internal/model"
)

// =========================================================================
// FAKE REPOSITORY
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. A hand-written
// fake keeps the tests readable — what it does is on the page.
type fakeUserRepo struct {
	users  map[string]*model.User // keyed by id
	nextID int

	// set to simulate storage failures
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("User does not exist")
}

func (f *fakeUserRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*model.User, error) {
	if u, err := f.FindByUsername(context.Background(), username); err == nil {
		return u, nil
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("User not found")
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id string, upd model.ProfileUpdate) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&u.Email, upd.Email)
	apply(&u.GitHub, upd.GitHub)
	apply(&u.Bio, upd.Bio)
	apply(&u.Location, upd.Location)
	apply(&u.Website, upd.Website)
	apply(&u.Phone, upd.Phone)
	apply(&u.Theme, upd.Theme)
	copied := *u
	return &copied, nil
}

// =========================================================================
// HELPERS
// =========================================================================

func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAuthService(repo, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), logger)
}

func signupUser(t *testing.T, svc *AuthService, username, email, password string) *model.User {
	t.Helper()
	user, err := svc.Signup(context.Background(), username, email, password)
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string { return &s }

// =========================================================================
// SIGNUP
// =========================================================================

func TestSignup_CreatesUserWithHashedPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	user := signupUser(t, svc, "advyta", "advyta@example.com", "s3cret")

	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NotEmpty(t, user.PasswordHash)
}

func TestSignup_BlankFields(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	cases := [][3]string{
		{"", "a@example.com", "pw"},
		{"advyta", "", "pw"},
		{"advyta", "a@example.com", ""},
		{"   ", "a@example.com", "pw"},
	}
	for _, c := range cases {
		_, err := svc.Signup(context.Background(), c[0], c[1], c[2])
		assert.ErrorIs(t, err, apperror.ErrValidation, "signup(%q,%q,%q)", c[0], c[1], c[2])
	}
}

func TestSignup_DuplicateUsername_UsernameSpecificMessage(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	signupUser(t, svc, "advyta", "advyta@example.com", "pw")

	_, err := svc.Signup(context.Background(), "advyta", "other@example.com", "pw")
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Username already exists", appErr.Message)
	assert.Equal(t, "username", appErr.Field)
}

func TestSignup_DuplicateEmail_EmailSpecificMessage(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	signupUser(t, svc, "advyta", "advyta@example.com", "pw")

	_, err := svc.Signup(context.Background(), "different", "advyta@example.com", "pw")
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Email already exists", appErr.Message)
	assert.Equal(t, "email", appErr.Field)
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	signupUser(t, svc, "advyta", "advyta@example.com", "s3cret")

	result, err := svc.Login(context.Background(), "advyta", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "advyta", result.User.Username)
	assert.NotEmpty(t, result.Token)
}

func TestLogin_TokenRoundTripsThroughVerify(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	created := signupUser(t, svc, "advyta", "advyta@example.com", "s3cret")

	result, err := svc.Login(context.Background(), "advyta", "s3cret")
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	claims, ok := tokens.Verify(result.Token)
	require.True(t, ok, "issued token failed verification")
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, "advyta", claims.Username)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.Login(context.Background(), "nobody", "pw")
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "User does not exist", appErr.Message)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	signupUser(t, svc, "advyta", "advyta@example.com", "s3cret")

	_, err := svc.Login(context.Background(), "advyta", "wrong")
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Invalid password", appErr.Message)
}

func TestLogin_MissingFields(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Login(context.Background(), "advyta", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// =========================================================================
// PROFILE
// =========================================================================

func TestProfile_ReturnsUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	created := signupUser(t, svc, "advyta", "advyta@example.com", "pw")

	got, err := svc.Profile(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "advyta", got.Username)
}

func TestProfile_RecordGoneAfterValidToken(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.Profile(context.Background(), "deleted-user")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestProfile_EmptyID(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.Profile(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// =========================================================================
// UPDATE PROFILE
// =========================================================================

func TestUpdateProfile_BlankEmailRejectedAndRecordUnchanged(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	created := signupUser(t, svc, "advyta", "advyta@example.com", "pw")

	_, err := svc.UpdateProfile(context.Background(), created.ID,
		model.ProfileUpdate{Email: strPtr("")})
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Email cannot be empty", appErr.Message)

	stored, err := svc.Profile(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "advyta@example.com", stored.Email, "rejected update must not alter the record")
}

func TestUpdateProfile_LocationOnly(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	created := signupUser(t, svc, "advyta", "advyta@example.com", "pw")

	updated, err := svc.UpdateProfile(context.Background(), created.ID,
		model.ProfileUpdate{Location: strPtr("Paris")})
	require.NoError(t, err)

	assert.Equal(t, "Paris", updated.Location)
	assert.Equal(t, "advyta@example.com", updated.Email)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash)
}

func TestUpdateProfile_BioTooLong(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	created := signupUser(t, svc, "advyta", "advyta@example.com", "pw")

	long := make([]byte, model.MaxBioLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.UpdateProfile(context.Background(), created.ID,
		model.ProfileUpdate{Bio: strPtr(string(long))})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateProfile_InvalidTheme(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	created := signupUser(t, svc, "advyta", "advyta@example.com", "pw")

	_, err := svc.UpdateProfile(context.Background(), created.ID,
		model.ProfileUpdate{Theme: strPtr("solarized")})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSignup_StorageFailurePropagates(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errors.New("disk on fire")
	svc := newTestAuthService(t, repo)

	_, err := svc.Signup(context.Background(), "advyta", "advyta@example.com", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrValidation)
}
