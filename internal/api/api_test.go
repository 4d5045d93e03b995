package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

type testEndpoint struct {
	method, path, use, group string
	init                     bool
}

func (e *testEndpoint) Route() (string, string, http.HandlerFunc) {
	return e.method, e.path, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}
}

func (e *testEndpoint) RequiresInit() bool { return e.init }
func (e *testEndpoint) Group() string      { return e.group }

func (e *testEndpoint) Command(func() string) *cobra.Command {
	return &cobra.Command{Use: e.use}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.RegisterAll([]Endpoint{
		&testEndpoint{method: "GET", path: "/health", use: "health"},
		&testEndpoint{method: "POST", path: "/api/assets/generate", use: "generate", group: "assets", init: true},
		&testEndpoint{method: "POST", path: "/api/assets/approve", use: "approve", group: "assets", init: true},
	})

	t.Run("routes", func(t *testing.T) {
		mux := http.NewServeMux()
		wrapped := 0
		r.RegisterRoutes(mux, func(h http.HandlerFunc) http.HandlerFunc {
			wrapped++
			return h
		})
		if wrapped != 2 {
			t.Errorf("init middleware wrapped %d handlers, want 2", wrapped)
		}

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET /health = %d", rec.Code)
		}
	})

	t.Run("commands grouped", func(t *testing.T) {
		root := r.BuildCommands(func() string { return "" })
		cmd, _, err := root.Find([]string{"assets", "approve"})
		if err != nil || cmd.Use != "approve" {
			t.Errorf("Find(assets approve) = %v, %v", cmd, err)
		}
		cmd, _, err = root.Find([]string{"health"})
		if err != nil || cmd.Use != "health" {
			t.Errorf("Find(health) = %v, %v", cmd, err)
		}
		if len(root.Commands()) != 2 {
			t.Errorf("top-level commands = %d, want 2", len(root.Commands()))
		}
	})
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id header")
		}
		switch r.URL.Path {
		case "/ok":
			body, _ := io.ReadAll(r.Body)
			w.Write([]byte(`{"echo":` + strings.TrimSpace(string(orDefault(body, "null"))) + `}`))
		case "/upload":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("ParseMultipartForm() error = %v", err)
			}
			f, _, _ := r.FormFile("file")
			data, _ := io.ReadAll(f)
			w.Write([]byte(`{"echo":{"type":"` + r.FormValue("type") + `","size":` + strconv.Itoa(len(data)) + `}}`))
		default:
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":"gated"}`))
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL)

	t.Run("post json", func(t *testing.T) {
		var resp struct {
			Echo map[string]string `json:"echo"`
		}
		if err := c.Post(ctx, "/ok", map[string]string{"a": "b"}, &resp); err != nil {
			t.Fatalf("Post() error = %v", err)
		}
		if resp.Echo["a"] != "b" {
			t.Errorf("echo = %v", resp.Echo)
		}
	})

	t.Run("multipart", func(t *testing.T) {
		var resp struct {
			Echo struct {
				Type string `json:"type"`
				Size int    `json:"size"`
			} `json:"echo"`
		}
		err := c.PostMultipart(ctx, "/upload", map[string]string{"type": "diagram"}, "file", "d.png", []byte("12345"), &resp)
		if err != nil {
			t.Fatalf("PostMultipart() error = %v", err)
		}
		if resp.Echo.Type != "diagram" || resp.Echo.Size != 5 {
			t.Errorf("echo = %+v", resp.Echo)
		}
	})

	t.Run("status error", func(t *testing.T) {
		err := c.Get(ctx, "/missing", nil)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("Get() error = %v, want *StatusError", err)
		}
		if se.StatusCode != http.StatusConflict || se.Message != "gated" {
			t.Errorf("StatusError = %+v", se)
		}
		if _, err := c.GetRaw(ctx, "/missing"); !errors.As(err, &se) {
			t.Errorf("GetRaw() error = %v", err)
		}
	})
}

func TestOutputTo(t *testing.T) {
	data := map[string]string{"title": "Fit Body"}

	var buf bytes.Buffer
	if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
		t.Fatalf("OutputTo(yaml) error = %v", err)
	}
	if buf.String() != "title: Fit Body\n" {
		t.Errorf("yaml = %q", buf.String())
	}

	buf.Reset()
	if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
		t.Fatalf("OutputTo(json) error = %v", err)
	}
	if !strings.Contains(buf.String(), `"title": "Fit Body"`) {
		t.Errorf("json = %q", buf.String())
	}

	if err := OutputTo(&buf, OutputFormat("xml"), data); err == nil {
		t.Error("expected error for unknown format")
	}

	SetOutputFormat("json")
	if GetOutputFormat() != OutputFormatJSON {
		t.Errorf("GetOutputFormat() = %s", GetOutputFormat())
	}
	SetOutputFormat("bogus")
	if GetOutputFormat() != DefaultOutput {
		t.Errorf("GetOutputFormat() = %s", GetOutputFormat())
	}
}

func orDefault(b []byte, def string) []byte {
	if len(bytes.TrimSpace(b)) == 0 {
		return []byte(def)
	}
	return b
}

func TestOutputText(t *testing.T) {
	var buf bytes.Buffer
	if err := OutputTo(&buf, OutputFormatText, map[string]string{"message": "Cover Image approved successfully!"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "Cover Image approved successfully!\n" {
		t.Errorf("text = %q", buf.String())
	}

	buf.Reset()
	if err := OutputTo(&buf, OutputFormatText, map[string]int{"count": 2}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "count: 2\n" {
		t.Errorf("fallback = %q", buf.String())
	}
}
