package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Internal("x"), http.StatusInternalServerError},
		{Validation("x"), http.StatusBadRequest},
		{BadRequest("x"), http.StatusBadRequest},
		{New(CodeNotFound, "x"), http.StatusNotFound},
		{InvalidIdentifier(stderrors.New("unknown region \"Atlantis\"")), http.StatusNotFound},
		{RateLimit("x"), http.StatusTooManyRequests},
		{New("SOMETHING_ELSE", "x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			if tt.err.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", tt.err.StatusCode, tt.want)
			}
		})
	}
}

func TestFrom(t *testing.T) {
	inner := BadRequest("limit must be positive")
	wrapped := fmt.Errorf("handler: %w", inner)

	if got := From(wrapped); got != inner {
		t.Errorf("From() = %v, want the wrapped AppError", got)
	}

	plain := stderrors.New("disk on fire")
	got := From(plain)
	if got.Code != CodeInternal || !stderrors.Is(got, plain) {
		t.Errorf("From(plain) = %v, want internal error wrapping cause", got)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, discard(), InvalidIdentifier(stderrors.New(`unknown model "roadster"`)), "req-1")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	var resp struct {
		Error struct {
			Code      string `json:"code"`
			Details   string `json:"details"`
			RequestID string `json:"request_id"`
		} `json:"error"`
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Error.Code != "INVALID_IDENTIFIER" || resp.Error.RequestID != "req-1" {
		t.Errorf("unexpected envelope %+v", resp)
	}
	if resp.Error.Details != `unknown model "roadster"` {
		t.Errorf("details = %q", resp.Error.Details)
	}
}

func TestWriteSuccess_UnencodableBecomes500(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, map[string]float64{"asp": math.NaN()}, map[string]string{"Cache-Control": "public, max-age=300"})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc == "public, max-age=300" {
		t.Error("error response kept the cacheable header")
	}
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]int{"units": 2943})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != `{"data":{"units":2943},"success":true}`+"\n" {
		t.Errorf("body = %q", got)
	}
}
