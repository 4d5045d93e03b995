package endpoints

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/svcctx"
)

// DefaultSummaryWords is the target length when the request names none.
const DefaultSummaryWords = 200

// SummarizeRequest is text to shorten.
type SummarizeRequest struct {
	Text  string `json:"text"`
	Words int    `json:"words,omitempty" validate:"gte=0"`
}

// SummarizeResponse is the shortened text.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// SummarizeEndpoint handles POST /api/summarize.
type SummarizeEndpoint struct{}

func (e *SummarizeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/summarize", e.handler
}

func (e *SummarizeEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Summarize text
//	@Description	Short text is returned unchanged; failures fall back to truncation
//	@Tags			summary
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SummarizeRequest	true	"Text and target word count"
//	@Success		200		{object}	SummarizeResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/summarize [post]
func (e *SummarizeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := svcctx.SummarizerFrom(r.Context())
	if s == nil {
		writeError(w, http.StatusInternalServerError, "summarizer not available")
		return
	}
	var req SummarizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Words == 0 {
		req.Words = DefaultSummaryWords
	}
	writeJSON(w, http.StatusOK, SummarizeResponse{Summary: s.SummarizeIfNeeded(r.Context(), req.Text, req.Words)})
}

func (e *SummarizeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var file string
	var req SummarizeRequest
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a text file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			req.Text = string(data)
			client := api.NewClient(getServerURL())
			var resp SummarizeResponse
			if err := client.Post(cmd.Context(), "/api/summarize", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Text file to summarize")
	cmd.Flags().IntVar(&req.Words, "words", DefaultSummaryWords, "Target word count")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
