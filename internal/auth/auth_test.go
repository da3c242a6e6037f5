package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatehub/listingguard/internal/errors"
)

const testSecret = "test-secret-with-enough-entropy"

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(testSecret, "listingguard")
	require.NoError(t, err)
	return r
}

func TestNewResolver_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewResolver("", "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestResolve_RoundTrip(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	token, err := r.Issue(Principal{ID: "agent-1", Role: RoleAgent}, time.Hour)
	require.NoError(t, err)

	p, err := r.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: "agent-1", Role: RoleAgent}, p)
	assert.True(t, p.IsAgent())
	assert.False(t, p.IsModerator())
}

func TestResolve_Rejects(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	sign := func(secret string, c claims, method jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(method, c).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := func() claims {
		return claims{
			Role: "agent",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "agent-1",
				Issuer:    "listingguard",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	noExp := valid()
	noExp.ExpiresAt = nil
	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"
	noSubject := valid()
	noSubject.Subject = ""
	badRole := valid()
	badRole.Role = "admin"

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign("other-secret", valid(), jwt.SigningMethodHS256),
		"wrong method": sign(testSecret, valid(), jwt.SigningMethodHS384),
		"expired":      sign(testSecret, expired, jwt.SigningMethodHS256),
		"no expiry":    sign(testSecret, noExp, jwt.SigningMethodHS256),
		"wrong issuer": sign(testSecret, wrongIssuer, jwt.SigningMethodHS256),
		"no subject":   sign(testSecret, noSubject, jwt.SigningMethodHS256),
		"unknown role": sign(testSecret, badRole, jwt.SigningMethodHS256),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Resolve(token)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryUnauthorized))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)
	agentToken, err := r.Issue(Principal{ID: "agent-1", Role: RoleAgent}, time.Hour)
	require.NoError(t, err)
	modToken, err := r.Issue(Principal{ID: "mod-1", Role: RoleModerator}, time.Hour)
	require.NoError(t, err)

	e := echo.New()
	g := e.Group("", Middleware(r))
	g.GET("/whoami", func(c echo.Context) error {
		p, _ := PrincipalFromContext(c.Request().Context())
		return c.String(http.StatusOK, p.ID)
	})
	g.GET("/queue", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RequireRole(RoleModerator))

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"no header", "/whoami", "", http.StatusUnauthorized},
		{"not bearer", "/whoami", "Basic abc", http.StatusUnauthorized},
		{"bad token", "/whoami", "Bearer nope", http.StatusUnauthorized},
		{"agent", "/whoami", "Bearer " + agentToken, http.StatusOK},
		{"agent on moderator route", "/queue", "Bearer " + agentToken, http.StatusForbidden},
		{"moderator", "/queue", "Bearer " + modToken, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
