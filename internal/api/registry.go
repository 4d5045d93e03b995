package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// groupDescriptions are the short help texts of command groups.
var groupDescriptions = map[string]string{
	"ebook":         "Document commands",
	"assets":        "Asset generation and review commands",
	"phase":         "Wizard phase commands",
	"prompts":       "Prompt template commands",
	"settings":      "Configuration settings commands",
	"llmcalls":      "Text generation call history commands",
	"notifications": "Banner commands",
}

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterAll adds endpoints in order.
func (r *Registry) RegisterAll(eps []Endpoint) {
	for _, ep := range eps {
		r.Register(ep)
	}
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers that require full server initialization.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns a cobra.Command tree for all registered endpoints.
// Endpoints implementing Grouped are placed under their group subcommand.
// getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running studio server via HTTP.

These commands require a running server (studio serve).
Use --server to specify a custom server URL.

Examples:
  studio api health                         # Check server health
  studio api ebook submit --text book.txt   # Load a manuscript
  studio api assets generate --type coverImage
  studio api phase next                     # Advance the wizard`,
	}

	groups := make(map[string]*cobra.Command)
	for _, ep := range r.endpoints {
		cmd := ep.Command(getServerURL)
		if cmd == nil {
			continue
		}
		g, ok := ep.(Grouped)
		if !ok || g.Group() == "" {
			apiCmd.AddCommand(cmd)
			continue
		}
		parent, exists := groups[g.Group()]
		if !exists {
			parent = &cobra.Command{Use: g.Group(), Short: groupDescriptions[g.Group()]}
			groups[g.Group()] = parent
			apiCmd.AddCommand(parent)
		}
		parent.AddCommand(cmd)
	}

	return apiCmd
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
