package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/cinghycreations/diskiller/internal/records"
)

type fakeBests struct {
	bests []records.Best
	err   error
}

func (f fakeBests) Bests(context.Context) ([]records.Best, error) {
	return f.bests, f.err
}

func TestIndexHandler(t *testing.T) {
	logger := log.New(io.Discard)
	h := indexHandler(fakeBests{bests: []records.Best{{Mode: "classic", Player: "<eve>", Score: 9}}}, "games.example", logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"ssh -t games.example", "<td>9</td>", "&lt;eve&gt;", "Survival"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestIndexHandlerErrors(t *testing.T) {
	logger := log.New(io.Discard)
	h := indexHandler(fakeBests{err: errors.New("locked")}, "x", logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
