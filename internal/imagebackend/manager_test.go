package imagebackend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/ebookstudio/internal/testutil"
)

func TestDefaults(t *testing.T) {
	m := newManager(nil, Config{})
	if m.containerName != DefaultContainerName {
		t.Errorf("containerName = %q", m.containerName)
	}
	if m.imageName != DefaultImage {
		t.Errorf("imageName = %q", m.imageName)
	}
	if m.readyTimeout != DefaultReadyTimeout {
		t.Errorf("readyTimeout = %v", m.readyTimeout)
	}
	if m.labels[Label] != "true" {
		t.Errorf("labels = %v", m.labels)
	}
	if got := m.GenerateURL(); got != "http://localhost:8000/generate-image/" {
		t.Errorf("GenerateURL() = %q", got)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() without client error = %v", err)
	}
}

func TestCustomConfig(t *testing.T) {
	m := newManager(nil, Config{HostPort: "9000", Labels: map[string]string{"test": "1"}})
	if m.BaseURL() != "http://localhost:9000" {
		t.Errorf("BaseURL() = %q", m.BaseURL())
	}
	if m.labels["test"] != "1" || m.labels[Label] != "true" {
		t.Errorf("labels = %v", m.labels)
	}
}

func TestWaitForReady(t *testing.T) {
	t.Run("ready after warmup", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"message": "Stable Diffusion Backend is running"}`))
		}))
		defer srv.Close()

		err := waitForReady(context.Background(), srv.URL+"/", time.Second, 10*time.Millisecond)
		if err != nil {
			t.Fatalf("waitForReady() error = %v", err)
		}
		if hits.Load() != 3 {
			t.Errorf("hits = %d, want 3", hits.Load())
		}
	})

	t.Run("times out", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := waitForReady(context.Background(), srv.URL+"/", 50*time.Millisecond, 10*time.Millisecond)
		if err == nil {
			t.Fatal("waitForReady() should fail")
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := waitForReady(ctx, "http://127.0.0.1:1/", time.Second, 10*time.Millisecond); err == nil {
			t.Fatal("waitForReady() should fail on cancelled context")
		}
	})
}

func TestManager_Docker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker test in short mode")
	}
	cli := testutil.RequireDocker(t)

	m := newManager(cli, Config{
		ContainerName: testutil.UniqueContainerName(t, "image"),
		Labels:        testutil.ContainerLabels(t),
	})

	ctx := context.Background()
	status, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status != StatusNotFound {
		t.Errorf("Status() = %s, want %s", status, StatusNotFound)
	}
	if err := m.Remove(ctx); err != nil {
		t.Errorf("Remove() on missing container error = %v", err)
	}
	if _, err := m.Logs(ctx, "10"); err == nil {
		t.Error("Logs() on missing container should fail")
	}
}
