package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/hr-portal/pkg/auth"
)

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, token string) (bool, error) {
	return r[token], nil
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwt := auth.NewJWTManager("secret", time.Hour)
	userID := uuid.New()
	good, err := jwt.Generate(userID)
	require.NoError(t, err)
	revoked, err := jwt.Generate(uuid.New())
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", AuthMiddleware(jwt, revokedSet{revoked: true}), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c).String())
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + good, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"revoked", "Bearer " + revoked, http.StatusUnauthorized},
		{"tampered", "Bearer " + good + "x", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			router.ServeHTTP(w, r)

			require.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				require.Equal(t, userID.String(), w.Body.String())
			}
		})
	}
}
