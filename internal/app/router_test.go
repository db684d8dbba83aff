package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/access"
	"github.com/gatehouse/gatehouse/internal/app"
	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/password"
	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/internal/shared"
	"github.com/gatehouse/gatehouse/internal/users"
)

type fakeRepo struct {
	rows   map[int64]*users.User
	nextID int64
}

func (r *fakeRepo) Create(ctx context.Context, email, hashedPassword string) (*users.User, error) {
	for _, row := range r.rows {
		if row.Email == email {
			return nil, shared.ErrDuplicateUser
		}
	}
	r.nextID++
	user := &users.User{ID: r.nextID, Email: email, HashedPassword: hashedPassword, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.rows[user.ID] = user
	return user, nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id int64) (*users.User, error) {
	if row, ok := r.rows[id]; ok {
		return row, nil
	}
	return nil, shared.ErrUserNotFound
}

func (r *fakeRepo) FindBy(ctx context.Context, field users.Field, value string) (*users.User, error) {
	for _, row := range r.rows {
		switch field {
		case users.FieldEmail:
			if row.Email == value {
				return row, nil
			}
		case users.FieldSessionID:
			if row.SessionID != nil && *row.SessionID == value {
				return row, nil
			}
		case users.FieldResetToken:
			if row.ResetToken != nil && *row.ResetToken == value {
				return row, nil
			}
		}
	}
	return nil, shared.ErrUserNotFound
}

func (r *fakeRepo) Update(ctx context.Context, id int64, changes users.Changes) error {
	row, ok := r.rows[id]
	if !ok {
		return shared.ErrUserNotFound
	}
	if changes.Empty() {
		return shared.ErrUnknownField
	}
	if changes.HashedPassword != nil {
		row.HashedPassword = *changes.HashedPassword
	}
	if changes.SessionID != nil {
		row.SessionID = changes.SessionID
	} else if changes.ClearSessionID {
		row.SessionID = nil
	}
	if changes.ResetToken != nil {
		row.ResetToken = changes.ResetToken
	} else if changes.ClearResetToken {
		row.ResetToken = nil
	}
	return nil
}

func newApp(t *testing.T) http.Handler {
	t.Helper()
	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	repo := &fakeRepo{rows: make(map[int64]*users.User)}
	hasher := password.NewHasher(4)
	authority := session.NewAuthority(repo, cfg.SessionTTL(), nil)
	service := auth.NewService(repo, hasher, authority, nil, nil, nil)
	handler := auth.NewHandler(nil, service, cfg.SessionName, false)
	strategy := access.NewSessionStrategy(repo, authority, cfg.SessionName)
	gate := access.Middleware(access.GateConfig{
		Strategy:   strategy,
		Excluded:   cfg.ExcludedPaths,
		CookieName: cfg.SessionName,
	})

	return app.NewRouter(app.RouterParams{
		Config:      cfg,
		AuthHandler: handler,
		Gate:        gate,
	})
}

func TestRouterGating(t *testing.T) {
	router := newApp(t)

	// excluded status endpoint requires no credentials
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "OK")

	// protected endpoint without a credential
	res = httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	require.Equal(t, http.StatusUnauthorized, res.Code)

	// protected endpoint with a dead session cookie
	res = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "_gatehouse_session", Value: "dead"})
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestRouterLoginFlow(t *testing.T) {
	router := newApp(t)

	form := url.Values{"email": {"a@x.com"}, "password": {"pw"}}
	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	res = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth_session/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var sessionValue string
	for _, cookie := range res.Result().Cookies() {
		if cookie.Name == "_gatehouse_session" {
			sessionValue = cookie.Value
		}
	}
	require.NotEmpty(t, sessionValue)

	// the issued cookie unlocks the protected endpoint
	res = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "_gatehouse_session", Value: sessionValue})
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "a@x.com")

	// logout destroys the session
	res = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/auth_session/logout", nil)
	req.AddCookie(&http.Cookie{Name: "_gatehouse_session", Value: sessionValue})
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	res = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "_gatehouse_session", Value: sessionValue})
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
}
