package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/llmcall"
	"github.com/jackzampolin/ebookstudio/internal/svcctx"
)

// LLMCallsResponse contains a list of recorded calls.
type LLMCallsResponse struct {
	Calls []llmcall.Call `json:"calls"`
	Total int            `json:"total"`
}

// LLMCallResponse contains a single call.
type LLMCallResponse struct {
	Call *llmcall.Call `json:"call,omitempty"`
}

// LLMCallCountsResponse contains prompt key counts.
type LLMCallCountsResponse struct {
	Counts map[string]int `json:"counts"`
}

// ListLLMCallsEndpoint handles GET /api/llmcalls.
type ListLLMCallsEndpoint struct{}

func (e *ListLLMCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/llmcalls", e.handler
}

func (e *ListLLMCallsEndpoint) RequiresInit() bool { return true }
func (e *ListLLMCallsEndpoint) Group() string      { return "llmcalls" }

// handler godoc
//
//	@Summary		List text generation calls
//	@Description	Recorded calls, newest first, with optional filters
//	@Tags			llmcalls
//	@Produce		json
//	@Param			asset_id	query		string	false	"Filter by asset ID"
//	@Param			chapter_id	query		string	false	"Filter by chapter ID"
//	@Param			asset_type	query		string	false	"Filter by asset type"
//	@Param			prompt_key	query		string	false	"Filter by prompt key"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Param			success		query		bool	false	"Filter by success status (true or false)"
//	@Param			limit		query		int		false	"Max results (default 100)"
//	@Param			offset		query		int		false	"Result offset"
//	@Param			after		query		string	false	"Filter calls after this RFC3339 timestamp"
//	@Param			before		query		string	false	"Filter calls before this RFC3339 timestamp"
//	@Success		200			{object}	LLMCallsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Router			/api/llmcalls [get]
func (e *ListLLMCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	recorder := svcctx.RecorderFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusInternalServerError, "call recorder not available")
		return
	}

	q := r.URL.Query()
	filter := llmcall.QueryFilter{
		AssetID:   q.Get("asset_id"),
		ChapterID: q.Get("chapter_id"),
		AssetType: q.Get("asset_type"),
		PromptKey: q.Get("prompt_key"),
		Provider:  q.Get("provider"),
	}

	if v := q.Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid success filter: %q must be true or false", v))
			return
		}
		filter.Success = &b
	}

	var err error
	if filter.Limit, err = intParam(q, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Offset, err = intParam(q, "offset"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.After, err = timeParam(q, "after"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Before, err = timeParam(q, "before"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	calls := recorder.List(filter)
	writeJSON(w, http.StatusOK, LLMCallsResponse{Calls: calls, Total: len(calls)})
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q must be an integer", name, v)
	}
	return n, nil
}

func timeParam(q url.Values, name string) (*time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s time: %q must be RFC3339 format (e.g., 2024-01-15T00:00:00Z)", name, v)
	}
	return &t, nil
}

func (e *ListLLMCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var assetID, chapterID, assetType, promptKey, provider string
	var limit, offset int
	var successOnly, failedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List text generation calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			for k, v := range map[string]string{
				"asset_id":   assetID,
				"chapter_id": chapterID,
				"asset_type": assetType,
				"prompt_key": promptKey,
				"provider":   provider,
			} {
				if v != "" {
					params.Set(k, v)
				}
			}
			if successOnly {
				params.Set("success", "true")
			}
			if failedOnly {
				params.Set("success", "false")
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				params.Set("offset", strconv.Itoa(offset))
			}

			path := "/api/llmcalls"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp LLMCallsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&assetID, "asset-id", "", "Filter by asset ID")
	cmd.Flags().StringVar(&chapterID, "chapter", "", "Filter by chapter ID")
	cmd.Flags().StringVar(&assetType, "type", "", "Filter by asset type")
	cmd.Flags().StringVar(&promptKey, "prompt-key", "", "Filter by prompt key")
	cmd.Flags().StringVar(&provider, "provider", "", "Filter by provider")
	cmd.Flags().BoolVar(&successOnly, "success", false, "Only show successful calls")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed calls")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Result offset")
	return cmd
}

// GetLLMCallEndpoint handles GET /api/llmcalls/{id}.
type GetLLMCallEndpoint struct{}

func (e *GetLLMCallEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/llmcalls/{id}", e.handler
}

func (e *GetLLMCallEndpoint) RequiresInit() bool { return true }
func (e *GetLLMCallEndpoint) Group() string      { return "llmcalls" }

// handler godoc
//
//	@Summary	Get a text generation call
//	@Tags		llmcalls
//	@Produce	json
//	@Param		id	path		string	true	"Call ID"
//	@Success	200	{object}	LLMCallResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/llmcalls/{id} [get]
func (e *GetLLMCallEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	recorder := svcctx.RecorderFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusInternalServerError, "call recorder not available")
		return
	}
	call := recorder.Get(r.PathValue("id"))
	if call == nil {
		writeError(w, http.StatusNotFound, "call not found")
		return
	}
	writeJSON(w, http.StatusOK, LLMCallResponse{Call: call})
}

func (e *GetLLMCallEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a text generation call by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp LLMCallResponse
			if err := client.Get(cmd.Context(), "/api/llmcalls/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp.Call)
		},
	}
}

// LLMCallCountsEndpoint handles GET /api/llmcalls/counts.
type LLMCallCountsEndpoint struct{}

func (e *LLMCallCountsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/llmcalls/counts", e.handler
}

func (e *LLMCallCountsEndpoint) RequiresInit() bool { return true }
func (e *LLMCallCountsEndpoint) Group() string      { return "llmcalls" }

// handler godoc
//
//	@Summary	Count calls by prompt key
//	@Tags		llmcalls
//	@Produce	json
//	@Success	200	{object}	LLMCallCountsResponse
//	@Router		/api/llmcalls/counts [get]
func (e *LLMCallCountsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	recorder := svcctx.RecorderFrom(r.Context())
	if recorder == nil {
		writeError(w, http.StatusInternalServerError, "call recorder not available")
		return
	}
	writeJSON(w, http.StatusOK, LLMCallCountsResponse{Counts: recorder.CountByPromptKey()})
}

func (e *LLMCallCountsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Count text generation calls by prompt key",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp LLMCallCountsResponse
			if err := client.Get(cmd.Context(), "/api/llmcalls/counts", &resp); err != nil {
				return err
			}
			return api.Output(resp.Counts)
		},
	}
}
