package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/config"
	"github.com/jackzampolin/ebookstudio/internal/home"
	"github.com/jackzampolin/ebookstudio/internal/server/endpoints"
	"github.com/jackzampolin/ebookstudio/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, testutil.ServerConfig) {
	t.Helper()
	cfg := testutil.NewServerConfig(t)

	if err := config.WriteDefault(cfg.ConfigFile); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	mgr, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	dir, err := home.New(cfg.HomeDir)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		ConfigManager: mgr,
		Home:          dir,
		Logger:        cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, cfg
}

func TestServer_RequireInit(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/ebook", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("before Start = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health before Start = %d, want 200", rec.Code)
	}
}

func TestServer_FullLifecycle(t *testing.T) {
	srv, cfg := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)
	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	if err := testutil.WaitForServer(ctx, cfg.URL(), 10*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not start: %v", err)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false after start")
	}

	t.Run("status", func(t *testing.T) {
		var status endpoints.StatusResponse
		code, err := testutil.GetJSON(cfg.URL()+"/status", &status)
		if err != nil || code != http.StatusOK {
			t.Fatalf("status = %d, %v", code, err)
		}
		if status.Server != "running" || status.Document.Loaded {
			t.Errorf("status = %+v", status)
		}
		if status.ImageBackend.Container != "unmanaged" {
			t.Errorf("image backend container = %s", status.ImageBackend.Container)
		}
	})

	t.Run("submit through client", func(t *testing.T) {
		client := api.NewClient(cfg.URL())
		var resp endpoints.EbookResponse
		req := endpoints.SubmitEbookRequest{RawText: "My Book\nChapter 1: One\nText.", RawToc: "My Book\nChapter 1: One"}
		if err := client.Post(ctx, "/api/ebook", req, &resp); err != nil {
			t.Fatalf("Post() error = %v", err)
		}
		if resp.Ebook == nil || len(resp.Ebook.Chapters) != 1 {
			t.Errorf("ebook = %+v", resp.Ebook)
		}
		if srv.Studio().Snapshot() == nil {
			t.Error("studio has no document after submit")
		}
	})

	t.Run("double start", func(t *testing.T) {
		if err := srv.Start(ctx); err == nil {
			t.Error("second Start() should return error")
		}
	})

	serverCancel()
	if err := testutil.WaitForShutdown(serverErr, 30*time.Second); err != nil {
		t.Errorf("shutdown error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestServer_ConfigReload(t *testing.T) {
	srv, _ := newTestServer(t)
	if got := srv.Registry().ListText(); len(got) != 0 {
		t.Skipf("provider keys present in environment: %v", got)
	}

	ctx := context.Background()
	store := srv.configMgr.Store()
	if err := store.Set(ctx, "text_providers.openai.api_key", "sk-test"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "text_providers.openai.enabled", true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !srv.Registry().HasText("openai") {
		t.Errorf("registry = %v, want openai registered after config change", srv.Registry().ListText())
	}
}
