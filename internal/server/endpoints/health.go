package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/export"
	"github.com/jackzampolin/ebookstudio/internal/generate"
	"github.com/jackzampolin/ebookstudio/internal/prompts"
	"github.com/jackzampolin/ebookstudio/internal/store"
	"github.com/jackzampolin/ebookstudio/internal/studio"
	"github.com/jackzampolin/ebookstudio/internal/svcctx"
	"github.com/jackzampolin/ebookstudio/internal/upload"
	"github.com/jackzampolin/ebookstudio/internal/wizard"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Liveness check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server       string             `json:"server"`
	Providers    ProvidersStatus    `json:"providers"`
	ImageBackend ImageBackendStatus `json:"image_backend"`
	Document     DocumentStatus     `json:"document"`
	Phase        wizard.Status      `json:"phase"`
}

// ProvidersStatus shows the registered text providers and the image generator.
type ProvidersStatus struct {
	Text  []string `json:"text"`
	Image string   `json:"image,omitempty"`
}

// ImageBackendStatus shows the managed container and backend reachability.
type ImageBackendStatus struct {
	Container string `json:"container"`
	Health    string `json:"health"`
	URL       string `json:"url,omitempty"`
}

// DocumentStatus summarizes the loaded document.
type DocumentStatus struct {
	Loaded   bool   `json:"loaded"`
	Title    string `json:"title,omitempty"`
	Chapters int    `json:"chapters"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Server status
//	@Description	Configured providers, image backend, loaded document and wizard phase
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{
		Server:       "running",
		ImageBackend: ImageBackendStatus{Container: "unmanaged", Health: "not_configured"},
	}

	if registry := svcctx.RegistryFrom(ctx); registry != nil {
		resp.Providers.Text = registry.ListText()
		if img := registry.Image(); img != nil {
			resp.Providers.Image = img.Name()
			resp.ImageBackend.Health = "healthy"
			if p, ok := img.(pinger); ok {
				if err := p.Ping(ctx); err != nil {
					resp.ImageBackend.Health = "unhealthy"
				}
			}
		}
	}

	if mgr := svcctx.ImageBackendFrom(ctx); mgr != nil {
		status, err := mgr.Status(ctx)
		if err != nil {
			resp.ImageBackend.Container = "error"
		} else {
			resp.ImageBackend.Container = string(status)
		}
		resp.ImageBackend.URL = mgr.BaseURL()
	}

	if st := svcctx.StudioFrom(ctx); st != nil {
		if doc := st.Snapshot(); doc != nil {
			resp.Document = DocumentStatus{Loaded: true, Title: doc.Title, Chapters: len(doc.Chapters)}
		}
		resp.Phase = st.PhaseStatus()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries the banner text set by an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeStudioError maps domain errors to status codes. Errors that match
// nothing get fallback.
func writeStudioError(w http.ResponseWriter, err error, fallback int) {
	writeError(w, statusFor(err, fallback), err.Error())
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, studio.ErrEmptyContent),
		errors.Is(err, generate.ErrPromptMissing),
		errors.Is(err, generate.ErrUnsupportedType),
		errors.Is(err, upload.ErrUnsupportedType),
		errors.Is(err, upload.ErrTooLarge),
		errors.Is(err, upload.ErrInvalidText),
		errors.Is(err, upload.ErrEmpty),
		errors.Is(err, wizard.ErrUnknownPhase):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNoDocument),
		errors.Is(err, export.ErrNoDocument),
		errors.Is(err, prompts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, wizard.ErrGated):
		return http.StatusConflict
	case errors.Is(err, store.ErrFault):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generate.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return fallback
}

// requireStudio fetches the session or writes a 500.
func requireStudio(w http.ResponseWriter, r *http.Request) (*studio.Studio, bool) {
	st := svcctx.StudioFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusInternalServerError, "studio not available")
		return nil, false
	}
	return st, true
}

// decodeJSON decodes the request body into v or writes a 400.
// Request bodies are checked against their `validate` struct tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "invalid request: "+validationMessage(verrs))
			return false
		}
	}
	return true
}

// validationMessage renders the first failed field as "field: tag".
func validationMessage(verrs validator.ValidationErrors) string {
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s is %s", fe.Field(), fe.Tag())
}
