package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/inkwell/backend/internal/auth"
	"github.com/anonto42/inkwell/backend/internal/models"
)

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user_id": UserID(c)})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthMiddleware(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue(&models.User{ID: 3, Email: "a@example.com"})
	require.NoError(t, err)
	verify, err := issuer.IssuePurpose(&models.User{ID: 3}, auth.PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", okHandler, JWTAuthMiddleware(issuer, nil))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"bearer header", "Bearer " + token, "", http.StatusOK},
		{"query token", "", token, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"malformed header", "Token " + token, "", http.StatusUnauthorized},
		{"wrong purpose", "Bearer " + verify, "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"user_id":3}`, rec.Body.String())
			}
		})
	}
}

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	uid, ok := f[idToken]
	if !ok {
		return nil, errors.New("bad id token")
	}
	return &fbauth.Token{UID: uid}, nil
}

type fakeLookup map[string]*models.User

func (f fakeLookup) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	u, ok := f[uid]
	if !ok {
		return nil, errors.New("not linked")
	}
	return u, nil
}

func TestFirebaseFallback(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	resolver := NewFirebaseResolver(
		fakeVerifier{"fb-linked": "uid-1", "fb-unlinked": "uid-2"},
		fakeLookup{"uid-1": {ID: 11, Email: "fb@example.com"}},
	)

	e := echo.New()
	e.GET("/me", okHandler, JWTAuthMiddleware(issuer, resolver))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer fb-linked")
	rec := serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":11}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer fb-unlinked")
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []models.ActivityLog
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return f.err
}

func TestActivityLogger(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue(&models.User{ID: 5})
	require.NoError(t, err)

	rec := &fakeRecorder{}
	e := echo.New()
	g := e.Group("/api", JWTAuthMiddleware(issuer, nil), ActivityLogger(rec))
	g.GET("/posts", okHandler)
	g.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/missing", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, serve(e, req).Code)

	// Rejected by auth, so never recorded.
	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	require.Len(t, rec.entries, 2)
	assert.Equal(t, models.ActivityLog{
		UserID: 5, Action: "Visited /api/posts", Method: http.MethodGet, Path: "/api/posts",
		Status: http.StatusOK, IP: rec.entries[0].IP, Timestamp: rec.entries[0].Timestamp,
	}, rec.entries[0])
	assert.Equal(t, http.StatusNotFound, rec.entries[1].Status)
}

func TestActivityLoggerIgnoresRecorderFailure(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue(&models.User{ID: 5})
	require.NoError(t, err)

	e := echo.New()
	e.GET("/x", okHandler, JWTAuthMiddleware(issuer, nil), ActivityLogger(&fakeRecorder{err: errors.New("mongo down")}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestOptionalJWTAuth(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue(&models.User{ID: 8})
	require.NoError(t, err)

	e := echo.New()
	e.GET("/posts", okHandler, OptionalJWTAuth(issuer))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/posts", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":0}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = serve(e, req)
	assert.JSONEq(t, `{"user_id":8}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":0}`, rec.Body.String())
}
