package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vanillai/vanillai/internal/config"
	"github.com/vanillai/vanillai/internal/db"
	"github.com/vanillai/vanillai/internal/http/middleware"
	"github.com/vanillai/vanillai/internal/ratelimit"
)

func TestNewRouterServesFrontAndAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn, err := db.Open(db.BuildSQLiteDSN(filepath.Join(t.TempDir(), "router.db")))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	limiter := ratelimit.NewManager(nil, nil, nil)
	defer limiter.Close()
	engine, err := NewRouter(conn, config.JWTConfig{Secret: "router-secret", Expiry: time.Hour}, config.ServerConfig{CORSOrigins: []string{"https://vanillai.example"}}, limiter)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	cases := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/v0/site", http.StatusOK},
		{"/v0/ai-models", http.StatusOK},
		{"/v0/admin/stats", http.StatusUnauthorized},
		{"/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set("Origin", "https://vanillai.example")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.path, tc.status, w.Code, w.Body.String())
		}
		if w.Header().Get(middleware.HeaderRequestID) == "" {
			t.Fatalf("%s: missing request id", tc.path)
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "https://vanillai.example" {
			t.Fatalf("%s: missing cors header", tc.path)
		}
	}
}

func TestSeedCommandIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := "database-dsn: '" + db.BuildSQLiteDSN(filepath.Join(dir, "seed.db")) + "'\n"
	if errWrite := os.WriteFile(configPath, []byte(content), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	cfg := config.AppConfig{ConfigPath: configPath}

	first, err := Seed(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if first.Models != 10 || first.News != 3 || first.Posts != 2 {
		t.Fatalf("unexpected first seed result %+v", first)
	}
	second, err := Seed(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Seed again: %v", err)
	}
	if second.Models != 0 || second.Posts != 0 {
		t.Fatalf("expected no inserts on second run, got %+v", second)
	}
	if errMigrate := Migrate(context.Background(), cfg); errMigrate != nil {
		t.Fatalf("Migrate: %v", errMigrate)
	}
}
