package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/prompts"
	"github.com/jackzampolin/ebookstudio/internal/svcctx"
)

// PromptResponse is a prompt as currently resolved.
type PromptResponse struct {
	Key         string   `json:"key"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Variables   []string `json:"variables,omitempty"`
	Hash        string   `json:"hash,omitempty"`
	IsOverride  bool     `json:"is_override"`
}

// PromptsListResponse contains all prompts.
type PromptsListResponse struct {
	Prompts []PromptResponse `json:"prompts"`
}

// SetPromptRequest is the request body for setting an override.
type SetPromptRequest struct {
	Text string `json:"text" validate:"required"`
}

func promptResolver(w http.ResponseWriter, r *http.Request) (*prompts.Resolver, bool) {
	st := svcctx.StudioFrom(r.Context())
	if st == nil || st.Prompts() == nil {
		writeError(w, http.StatusInternalServerError, "prompt resolver not available")
		return nil, false
	}
	return st.Prompts(), true
}

func promptKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid prompt key")
		return "", false
	}
	return key, true
}

func resolvedResponse(resolver *prompts.Resolver, key, description string) (PromptResponse, error) {
	rp, err := resolver.Resolve(key)
	if err != nil {
		return PromptResponse{}, err
	}
	return PromptResponse{
		Key:         rp.Key,
		Text:        rp.Text,
		Description: description,
		Variables:   rp.Variables,
		Hash:        rp.Hash,
		IsOverride:  rp.IsOverride,
	}, nil
}

// ListPromptsEndpoint handles GET /api/prompts.
type ListPromptsEndpoint struct{}

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresInit() bool { return true }
func (e *ListPromptsEndpoint) Group() string      { return "prompts" }

// handler godoc
//
//	@Summary		List all prompts
//	@Description	Every asset prompt template with session overrides applied
//	@Tags			prompts
//	@Produce		json
//	@Success		200	{object}	PromptsListResponse
//	@Router			/api/prompts [get]
func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver, ok := promptResolver(w, r)
	if !ok {
		return
	}

	embedded := resolver.AllEmbedded()
	sort.Slice(embedded, func(i, j int) bool {
		return embedded[i].Key < embedded[j].Key
	})

	resp := PromptsListResponse{Prompts: make([]PromptResponse, 0, len(embedded))}
	for _, p := range embedded {
		pr, err := resolvedResponse(resolver, p.Key, p.Description)
		if err != nil {
			writeStudioError(w, err, http.StatusInternalServerError)
			return
		}
		resp.Prompts = append(resp.Prompts, pr)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptsListResponse
			if err := client.Get(cmd.Context(), "/api/prompts", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetPromptEndpoint handles GET /api/prompts/{key...}.
type GetPromptEndpoint struct{}

func (e *GetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts/{key...}", e.handler
}

func (e *GetPromptEndpoint) RequiresInit() bool { return true }
func (e *GetPromptEndpoint) Group() string      { return "prompts" }

// handler godoc
//
//	@Summary	Get a prompt
//	@Tags		prompts
//	@Produce	json
//	@Param		key	path		string	true	"Prompt key (e.g. assets.coverImage.user)"
//	@Success	200	{object}	PromptResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/prompts/{key} [get]
func (e *GetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver, ok := promptResolver(w, r)
	if !ok {
		return
	}
	key, ok := promptKey(w, r)
	if !ok {
		return
	}
	pr, err := resolvedResponse(resolver, key, "")
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (e *GetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a prompt by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			if err := client.Get(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// SetPromptEndpoint handles PUT /api/prompts/{key...}.
type SetPromptEndpoint struct{}

func (e *SetPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/prompts/{key...}", e.handler
}

func (e *SetPromptEndpoint) RequiresInit() bool { return true }
func (e *SetPromptEndpoint) Group() string      { return "prompts" }

// handler godoc
//
//	@Summary		Override a prompt
//	@Description	Replace the template for the rest of the session. The text must parse as a template.
//	@Tags			prompts
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string				true	"Prompt key"
//	@Param			body	body		SetPromptRequest	true	"Template text"
//	@Success		200		{object}	PromptResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/prompts/{key} [put]
func (e *SetPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver, ok := promptResolver(w, r)
	if !ok {
		return
	}
	key, ok := promptKey(w, r)
	if !ok {
		return
	}
	var req SetPromptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := resolver.SetOverride(key, req.Text); err != nil {
		writeStudioError(w, err, http.StatusBadRequest)
		return
	}
	pr, err := resolvedResponse(resolver, key, "")
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (e *SetPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	var text, file string
	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Override a prompt for this session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read prompt file: %w", err)
				}
				text = string(data)
			}
			if text == "" {
				return errors.New("either --text or --file is required")
			}
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			if err := client.Put(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0]), SetPromptRequest{Text: text}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Template text")
	cmd.Flags().StringVar(&file, "file", "", "Read the template from a file")
	return cmd
}

// ClearPromptEndpoint handles DELETE /api/prompts/{key...}.
type ClearPromptEndpoint struct{}

func (e *ClearPromptEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/prompts/{key...}", e.handler
}

func (e *ClearPromptEndpoint) RequiresInit() bool { return true }
func (e *ClearPromptEndpoint) Group() string      { return "prompts" }

// handler godoc
//
//	@Summary	Remove a prompt override
//	@Tags		prompts
//	@Produce	json
//	@Param		key	path		string	true	"Prompt key"
//	@Success	200	{object}	PromptResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/prompts/{key} [delete]
func (e *ClearPromptEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver, ok := promptResolver(w, r)
	if !ok {
		return
	}
	key, ok := promptKey(w, r)
	if !ok {
		return
	}
	if _, err := resolver.Resolve(key); err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	resolver.ClearOverride(key)
	pr, err := resolvedResponse(resolver, key, "")
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (e *ClearPromptEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <key>",
		Short: "Restore the default template for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptResponse
			if err := client.Delete(cmd.Context(), "/api/prompts/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
