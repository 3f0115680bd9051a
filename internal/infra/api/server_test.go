//go:build !integration

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/domain"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/infra/api"
)

type stubResolver struct {
	res         []model.Resolution
	invalidated []string
}

func (s *stubResolver) Resolve(ctx context.Context) []model.Resolution { return s.res }
func (s *stubResolver) Invalidate(ctx context.Context, id string) {
	s.invalidated = append(s.invalidated, id)
}

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer(t *testing.T) {
	t.Run("health", func(t *testing.T) {
		h := api.NewServer(&stubResolver{}, nil, newLogger()).Handler()
		rec := do(t, h, http.MethodGet, "/health")
		if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
			t.Fatalf("got %d %q", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected a request id header")
		}
	})

	t.Run("ready reports failing checks", func(t *testing.T) {
		checks := map[string]api.HealthCheck{
			"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
			"telegram": func(ctx context.Context) error { return nil },
		}
		h := api.NewServer(&stubResolver{}, checks, newLogger()).Handler()
		rec := do(t, h, http.MethodGet, "/ready")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != "degraded" || body.Checks["redis"] != "connection refused" || body.Checks["telegram"] != "ok" {
			t.Errorf("unexpected body %+v", body)
		}
	})

	t.Run("ready is ok without checks", func(t *testing.T) {
		h := api.NewServer(&stubResolver{}, nil, newLogger()).Handler()
		if rec := do(t, h, http.MethodGet, "/ready"); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("recipients lists resolutions in order", func(t *testing.T) {
		res := &stubResolver{res: []model.Resolution{
			{Identifier: "badid", Err: domain.NewResolutionError("badid", domain.ErrNotFound)},
			{Identifier: "@r2", Destination: model.Destination{Identifier: "@r2", ChatID: 1002, Title: "R2"}},
		}}
		h := api.NewServer(res, nil, newLogger()).Handler()
		rec := do(t, h, http.MethodGet, "/api/v1/recipients")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(got))
		}
		if got[0]["identifier"] != "badid" || got[0]["ok"] != false || got[0]["error"] == nil {
			t.Errorf("unexpected first entry %+v", got[0])
		}
		if got[1]["identifier"] != "@r2" || got[1]["ok"] != true || got[1]["chat_id"] != float64(1002) {
			t.Errorf("unexpected second entry %+v", got[1])
		}
	})

	t.Run("cache invalidation", func(t *testing.T) {
		res := &stubResolver{}
		h := api.NewServer(res, nil, newLogger()).Handler()
		rec := do(t, h, http.MethodDelete, "/api/v1/recipients/@r2/cache")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if len(res.invalidated) != 1 || res.invalidated[0] != "@r2" {
			t.Errorf("unexpected invalidations %v", res.invalidated)
		}
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		h := api.NewServer(&stubResolver{}, nil, newLogger()).Handler()
		if rec := do(t, h, http.MethodGet, "/metrics"); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestRecover(t *testing.T) {
	h := api.Recover(newLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := do(t, h, http.MethodGet, "/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
