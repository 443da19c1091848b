package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oceanauth/auth-api/internal/core/domain"
)

func TestGoogleProvider_Exchange_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer good-token" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"g-123","email":"fed@x.com","name":"Fed User"}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider(Config{UserinfoURL: srv.URL})
	identity, err := p.Exchange(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if identity.Email != "fed@x.com" || identity.SubjectID != "g-123" || identity.FullName != "Fed User" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestGoogleProvider_Exchange_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewGoogleProvider(Config{UserinfoURL: srv.URL})
	if _, err := p.Exchange(context.Background(), "bad-token"); !errors.Is(err, domain.ErrInvalidProviderToken) {
		t.Fatalf("expected ErrInvalidProviderToken, got %v", err)
	}
}

func TestGoogleProvider_Exchange_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"email":""}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider(Config{UserinfoURL: srv.URL})
	if _, err := p.Exchange(context.Background(), "token"); !errors.Is(err, domain.ErrInvalidProviderToken) {
		t.Fatalf("expected ErrInvalidProviderToken, got %v", err)
	}
}

func TestGoogleProvider_Exchange_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	p := NewGoogleProvider(Config{UserinfoURL: srv.URL})
	if _, err := p.Exchange(context.Background(), "token"); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
