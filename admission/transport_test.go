package admission

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sunrise-finder/admission/application"
	"sunrise-finder/admission/domain"
	"sunrise-finder/admission/infra"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type keyRecorder struct {
	keys []domain.Key
}

func (k *keyRecorder) Get(key domain.Key) domain.Limiter {
	k.keys = append(k.keys, key)
	return nil
}

func TestHostKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://API.Sunrise-Sunset.org:8443/json", nil)
	if got := HostKey(r); got != "api.sunrise-sunset.org" {
		t.Fatalf("expected lowercased host without port, got %q", got)
	}

	r = &http.Request{Host: "Example"}
	if got := HostKey(r); got != "example" {
		t.Fatalf("expected Host fallback, got %q", got)
	}

	if got := HostKey(&http.Request{}); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestTransport_HoldsPermitUntilBodyClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"OK"}`)
	}))
	defer srv.Close()

	ctrl := infra.NewController(infra.WithMaxInFlight(2), infra.WithMinPauseTime(0))
	client := &http.Client{Transport: NewTransport(TransportOptions{
		Service: application.Service{Gate: ctrl},
	})}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ctrl.Snapshot().InFlight; got != 1 {
		t.Fatalf("expected permit held while body is open, in-flight=%d", got)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "OK") {
		t.Fatalf("unexpected body %q", body)
	}
	_ = resp.Body.Close()
	_ = resp.Body.Close()

	if got := ctrl.Snapshot().InFlight; got != 0 {
		t.Fatalf("expected permit released after close, in-flight=%d", got)
	}
}

func TestTransport_ReleasesOnTransportError(t *testing.T) {
	ctrl := infra.NewController(infra.WithMaxInFlight(1), infra.WithMinPauseTime(0))
	boom := errors.New("dial failed")

	rt := NewTransport(TransportOptions{
		Base:    roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, boom }),
		Service: application.Service{Gate: ctrl},
	})

	req := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	if _, err := rt.RoundTrip(req); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if got := ctrl.Snapshot().InFlight; got != 0 {
		t.Fatalf("expected permit released after error, in-flight=%d", got)
	}
}

func TestTransport_ReleasesImmediatelyWithoutBody(t *testing.T) {
	ctrl := infra.NewController(infra.WithMaxInFlight(2), infra.WithMinPauseTime(0))

	rt := NewTransport(TransportOptions{
		Base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody}, nil
		}),
		Service: application.Service{Gate: ctrl},
	})

	req := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ctrl.Snapshot().InFlight; got != 0 {
		t.Fatalf("expected permit released, in-flight=%d", got)
	}
}

func TestTransport_PacesByHost(t *testing.T) {
	keys := &keyRecorder{}
	rt := NewTransport(TransportOptions{
		Base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		}),
		Pace: application.PaceService{Store: keys},
	})

	req := httptest.NewRequest(http.MethodGet, "http://api.example:9000/json", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys.keys) != 1 || keys.keys[0] != "api.example" {
		t.Fatalf("expected pacing key api.example, got %v", keys.keys)
	}
}

func TestTransport_QueuedRequestGivesUpWithContext(t *testing.T) {
	ctrl := infra.NewController(infra.WithMaxInFlight(1), infra.WithMinPauseTime(time.Hour))
	held, _ := ctrl.Acquire(context.Background())
	defer ctrl.Release(held)

	called := false
	rt := NewTransport(TransportOptions{
		Base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			called = true
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		}),
		Service: application.Service{Gate: ctrl},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "http://example/", nil).WithContext(ctx)

	if _, err := rt.RoundTrip(req); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if called {
		t.Fatalf("request must not reach the base transport without a permit")
	}
	if got := ctrl.Snapshot().Queued; got != 0 {
		t.Fatalf("expected queue to be empty, got %d", got)
	}
}
