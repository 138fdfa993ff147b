package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator accepts only the tokens registered with it.
type testTokenValidator struct {
	validTokens map[string]uuid.UUID
}

func newTestTokenValidator() *testTokenValidator {
	return &testTokenValidator{validTokens: make(map[string]uuid.UUID)}
}

func (v *testTokenValidator) addValidToken(token string, subject uuid.UUID) {
	v.validTokens[token] = subject
}

func (v *testTokenValidator) ValidateToken(tokenString string) (SubjectGetter, error) {
	subject, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(subject), nil
}

type testClaims uuid.UUID

func (c testClaims) GetSubjectID() uuid.UUID {
	return uuid.UUID(c)
}

func serve(t *testing.T, validator TokenValidator, path, authHeader string) (*httptest.ResponseRecorder, bool, uuid.UUID) {
	t.Helper()
	handlerCalled := false
	var subject uuid.UUID
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		subject, _ = GetSubjectID(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	AuthMiddleware(validator, "/api/")(handler).ServeHTTP(w, req)
	return w, handlerCalled, subject
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	validator := newTestTokenValidator()
	subject := uuid.New()
	validator.addValidToken("valid-test-token-123", subject)

	w, called, got := serve(t, validator, "/api/content/generate", "Bearer valid-test-token-123")

	assert.True(t, called, "handler should be called")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, subject, got)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	validator := newTestTokenValidator()
	validator.addValidToken("token123", uuid.New())

	tests := []struct {
		name       string
		authHeader string
	}{
		{name: "missing header", authHeader: ""},
		{name: "missing Bearer prefix", authHeader: "token123"},
		{name: "only Bearer", authHeader: "Bearer"},
		{name: "basic scheme", authHeader: "Basic token123"},
		{name: "unknown token", authHeader: "Bearer not.a.valid.jwt"},
		{name: "extra parts", authHeader: "Bearer token123 extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, called, _ := serve(t, validator, "/api/content/generate", tt.authHeader)

			assert.False(t, called, "handler should not be called")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error": "Unauthorized"}`, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestAuthMiddleware_CaseInsensitiveScheme(t *testing.T) {
	validator := newTestTokenValidator()
	validator.addValidToken("token123", uuid.New())

	for _, header := range []string{"bearer token123", "BeArEr token123", "Bearer  token123"} {
		w, called, _ := serve(t, validator, "/api/content/generate", header)
		assert.True(t, called, header)
		assert.Equal(t, http.StatusOK, w.Code, header)
	}
}

func TestAuthMiddleware_UnprotectedPaths(t *testing.T) {
	validator := newTestTokenValidator()

	for _, path := range []string{"/", "/health"} {
		w, called, _ := serve(t, validator, path, "")
		assert.True(t, called, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestGetSubjectID(t *testing.T) {
	subject := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), subjectKey, subject))

	got, err := GetSubjectID(req)
	require.NoError(t, err)
	assert.Equal(t, subject, got)
}

func TestGetSubjectID_Missing(t *testing.T) {
	got, err := GetSubjectID(httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, got)
	assert.Contains(t, err.Error(), "subject not found")
}

func TestGetSubjectID_InvalidType(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), subjectKey, "not-a-uuid"))

	got, err := GetSubjectID(req)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, got)
}
