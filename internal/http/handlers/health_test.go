package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/epanner/shipfast-hack-25/internal/ai"
	"github.com/epanner/shipfast-hack-25/internal/db"
	"github.com/epanner/shipfast-hack-25/internal/session"
)

func TestHealthzWithoutStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		Registry: session.NewRegistry(),
		AI:       ai.MockAdapter{ModelVersion: "mock-v1"},
		Logger:   zerolog.Nop(),
	}

	r := gin.New()
	r.GET("/healthz", h.Healthz)

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["ai"] != "ok" {
		t.Fatalf("expected ai ok, got %v", body["ai"])
	}
}

func TestHealthzIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	store, err := db.New(context.Background(), url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer store.Close()

	gin.SetMode(gin.TestMode)
	h := &Handler{
		Registry: session.NewRegistry(),
		Store:    store,
		AI:       ai.MockAdapter{ModelVersion: "mock-v1"},
		Logger:   zerolog.Nop(),
	}

	r := gin.New()
	r.GET("/healthz", h.Healthz)

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
