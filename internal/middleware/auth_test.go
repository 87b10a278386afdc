package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuth(t *testing.T) {
	const secret = "test-secret"
	var seen UserClaims
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := IssueToken(secret, 7, "sam@tripcrew.dev", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/trips/1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
	if seen.UserID != 7 || seen.Email != "sam@tripcrew.dev" {
		t.Fatalf("unexpected claims %+v", seen)
	}
}

func TestParseTokenRejects(t *testing.T) {
	other, _ := IssueToken("other-secret", 1, "a@b", time.Hour)
	if _, err := ParseToken("secret", other); err == nil {
		t.Fatal("expected signature mismatch")
	}
	expired, _ := IssueToken("secret", 1, "a@b", -time.Minute)
	if _, err := ParseToken("secret", expired); err == nil {
		t.Fatal("expected expired token to fail")
	}
	if _, err := ParseToken("", other); err == nil {
		t.Fatal("expected missing secret to fail")
	}
}
