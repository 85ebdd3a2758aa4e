package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndValidate(t *testing.T) {
	a := New("s3cret")
	tok, err := a.Issue("officer-1", "treasurer@chapter.org", "treasurer", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := a.Validate(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "officer-1" || claims.Role != "treasurer" {
		t.Errorf("claims %+v", claims)
	}

	if _, err := New("other").Validate(tok); err == nil {
		t.Error("token signed with another secret must fail")
	}
	expired, _ := a.Issue("officer-1", "", "", -time.Minute)
	if _, err := a.Validate(expired); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expired token: got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	a := New("s3cret", "/api/health", "/api/stripe/webhook")
	valid, err := a.Issue("officer-1", "t@chapter.org", "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	h := a.Middleware(func(w http.ResponseWriter, r *http.Request, err error) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := FromContext(r.Context())
		if authed := r.Header.Get("Authorization") != ""; authed != ok {
			t.Errorf("%s %s: claims present=%v with Authorization header=%v", r.Method, r.URL.Path, ok, authed)
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"public health", http.MethodGet, "/api/health", "", http.StatusOK},
		{"public webhook", http.MethodPost, "/api/stripe/webhook", "", http.StatusOK},
		{"preflight", http.MethodOptions, "/api/members", "", http.StatusOK},
		{"missing token", http.MethodGet, "/api/members", "", http.StatusUnauthorized},
		{"wrong scheme", http.MethodGet, "/api/members", "Basic abc", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/members", "Bearer nope", http.StatusUnauthorized},
		{"valid token", http.MethodGet, "/api/members", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Errorf("status %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMiddlewareDisabledWithoutSecret(t *testing.T) {
	a := New("")
	h := a.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/members", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status %d", rec.Code)
	}
}
