package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farmcore/farmcore/internal/shared"
)

type memoryRepo struct {
	users map[string]User
}

func (m *memoryRepo) GetUserByEmail(_ context.Context, email string) (User, error) {
	u, ok := m.users[email]
	if !ok {
		return User{}, shared.E(shared.KindNotFound, "user not found")
	}
	return u, nil
}

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	return NewTokenIssuer("test-secret-please-rotate", time.Hour)
}

func seedUser(t *testing.T, repo *memoryRepo, email, password, role string) User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	u := User{ID: 7, FarmID: 3, Name: "Ana", Email: email, PasswordHash: hash, Role: role}
	repo.users[email] = u
	return u
}

func TestLoginIssuesParsableToken(t *testing.T) {
	repo := &memoryRepo{users: map[string]User{}}
	seedUser(t, repo, "ana@farm.test", "correct horse battery", "employee")
	issuer := newIssuer(t)
	svc := NewService(repo, issuer)

	res, err := svc.Login(context.Background(), LoginInput{Email: "Ana@Farm.Test ", Password: "correct horse battery"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.EqualValues(t, 3, res.FarmID)

	p, err := issuer.Parse(res.Token)
	require.NoError(t, err)
	require.EqualValues(t, 7, p.UserID)
	require.EqualValues(t, 3, p.FarmID)
	require.Equal(t, shared.RoleEmployee, p.Role)
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	repo := &memoryRepo{users: map[string]User{}}
	seedUser(t, repo, "ana@farm.test", "correct horse battery", "employee")
	svc := NewService(repo, newIssuer(t))

	_, err := svc.Login(context.Background(), LoginInput{Email: "ana@farm.test", Password: "wrong"})
	require.True(t, shared.IsKind(err, shared.KindUnauthorized))

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@farm.test", Password: "wrong"})
	require.True(t, shared.IsKind(err, shared.KindUnauthorized))
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := newIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue(User{ID: 1, FarmID: 1, Role: "admin"})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	require.True(t, shared.IsKind(err, shared.KindUnauthorized))
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, _, err := NewTokenIssuer("other-secret", time.Hour).Issue(User{ID: 1, FarmID: 1, Role: "admin"})
	require.NoError(t, err)

	_, err = newIssuer(t).Parse(token)
	require.True(t, shared.IsKind(err, shared.KindUnauthorized))
}

func TestAuthenticatorAttachesPrincipal(t *testing.T) {
	issuer := newIssuer(t)
	token, _, err := issuer.Issue(User{ID: 9, FarmID: 2, Email: "x@y.z", Role: "viewer"})
	require.NoError(t, err)

	var got shared.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := shared.PrincipalFromContext(r.Context())
		require.True(t, ok)
		got = p
	})
	handler := Authenticator(issuer)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 9, got.UserID)
	require.Equal(t, shared.RoleViewer, got.Role)
}

func TestAuthenticatorRejectsMissingAndGarbageTokens(t *testing.T) {
	handler := Authenticator(newIssuer(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
