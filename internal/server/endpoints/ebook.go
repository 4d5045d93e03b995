package endpoints

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/ebook"
	"github.com/jackzampolin/ebookstudio/internal/export"
	"github.com/jackzampolin/ebookstudio/internal/manuscript"
	"github.com/jackzampolin/ebookstudio/internal/studio"
	"github.com/jackzampolin/ebookstudio/internal/svcctx"
)

// SubmitEbookRequest is the manuscript to segment.
type SubmitEbookRequest struct {
	RawText string `json:"raw_text"`
	RawToc  string `json:"raw_toc,omitempty"`
}

// EbookResponse wraps the current document.
type EbookResponse struct {
	Ebook   *ebook.Ebook `json:"ebook"`
	Message string       `json:"message,omitempty"`
}

// SubmitEbookEndpoint handles POST /api/ebook.
type SubmitEbookEndpoint struct{}

func (e *SubmitEbookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ebook", e.handler
}

func (e *SubmitEbookEndpoint) RequiresInit() bool { return true }
func (e *SubmitEbookEndpoint) Group() string      { return "ebook" }

// handler godoc
//
//	@Summary		Submit manuscript
//	@Description	Segment the manuscript into chapters and replace the current document
//	@Tags			ebook
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SubmitEbookRequest	true	"Manuscript text and optional table of contents"
//	@Success		201		{object}	EbookResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/ebook [post]
func (e *SubmitEbookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	var req SubmitEbookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	doc, err := st.Submit(req.RawText, req.RawToc)
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
		logger.Info("manuscript submitted", "title", doc.Title, "chapters", len(doc.Chapters))
	}
	writeJSON(w, http.StatusCreated, EbookResponse{Ebook: doc, Message: bannerMessage(st)})
}

func (e *SubmitEbookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var textFile, tocFile string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a manuscript (.txt, .md or .pdf)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := manuscript.Read(textFile)
			if err != nil {
				return err
			}
			req := SubmitEbookRequest{RawText: text.Text}
			if tocFile != "" {
				toc, err := manuscript.Read(tocFile)
				if err != nil {
					return err
				}
				req.RawToc = toc.Text
			}

			client := api.NewClient(getServerURL())
			var resp EbookResponse
			if err := client.Post(cmd.Context(), "/api/ebook", req, &resp); err != nil {
				return err
			}
			return api.Output(summarizeEbook(resp.Ebook))
		},
	}
	cmd.Flags().StringVar(&textFile, "text", "", "Manuscript file")
	cmd.Flags().StringVar(&tocFile, "toc", "", "Table of contents file (optional)")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

// GetEbookEndpoint handles GET /api/ebook.
type GetEbookEndpoint struct{}

func (e *GetEbookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ebook", e.handler
}

func (e *GetEbookEndpoint) RequiresInit() bool { return true }
func (e *GetEbookEndpoint) Group() string      { return "ebook" }

// handler godoc
//
//	@Summary	Get the current document
//	@Tags		ebook
//	@Produce	json
//	@Success	200	{object}	EbookResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/ebook [get]
func (e *GetEbookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	doc := st.Snapshot()
	if doc == nil {
		writeError(w, http.StatusNotFound, "no document loaded")
		return
	}
	writeJSON(w, http.StatusOK, EbookResponse{Ebook: doc})
}

func (e *GetEbookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the current document",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp EbookResponse
			if err := client.Get(cmd.Context(), "/api/ebook", &resp); err != nil {
				return err
			}
			if full {
				return api.Output(resp.Ebook)
			}
			return api.Output(summarizeEbook(resp.Ebook))
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Include chapter text and asset contents")
	return cmd
}

// ResetEbookEndpoint handles DELETE /api/ebook.
type ResetEbookEndpoint struct{}

func (e *ResetEbookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/ebook", e.handler
}

func (e *ResetEbookEndpoint) RequiresInit() bool { return true }
func (e *ResetEbookEndpoint) Group() string      { return "ebook" }

// handler godoc
//
//	@Summary	Reset the project
//	@Tags		ebook
//	@Produce	json
//	@Success	200	{object}	MessageResponse
//	@Router		/api/ebook [delete]
func (e *ResetEbookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	st.Reset()
	writeJSON(w, http.StatusOK, MessageResponse{Message: bannerMessage(st)})
}

func (e *ResetEbookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the current document and start over",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp MessageResponse
			if err := client.Delete(cmd.Context(), "/api/ebook", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ExportSavedResponse is returned when the export is written on the server.
type ExportSavedResponse struct {
	Path string `json:"path"`
}

// ExportEbookEndpoint handles GET /api/ebook/export.
type ExportEbookEndpoint struct{}

func (e *ExportEbookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ebook/export", e.handler
}

func (e *ExportEbookEndpoint) RequiresInit() bool { return true }
func (e *ExportEbookEndpoint) Group() string      { return "ebook" }

// handler godoc
//
//	@Summary		Export the document
//	@Description	Download the JSON export, or write it to the exports directory with save=true
//	@Tags			ebook
//	@Produce		json
//	@Param			save	query		bool	false	"Write the export on the server instead of returning it"
//	@Success		200		{object}	ebook.Ebook
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/ebook/export [get]
func (e *ExportEbookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}

	if save, _ := strconv.ParseBool(r.URL.Query().Get("save")); save {
		dir := svcctx.HomeFrom(r.Context())
		if dir == nil {
			writeError(w, http.StatusInternalServerError, "home directory not available")
			return
		}
		path, err := st.ExportFile(dir.ExportsDir())
		if err != nil {
			writeStudioError(w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, ExportSavedResponse{Path: path})
		return
	}

	data, err := st.Export()
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	var title string
	if doc := st.Snapshot(); doc != nil {
		title = doc.Title
	}
	name := export.Filename(title, time.Now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (e *ExportEbookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outFile string
	var save bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the document as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if save {
				var resp ExportSavedResponse
				if err := client.Get(cmd.Context(), "/api/ebook/export?save=true", &resp); err != nil {
					return err
				}
				return api.Output(resp)
			}

			data, err := client.GetRaw(cmd.Context(), "/api/ebook/export")
			if err != nil {
				return err
			}
			if outFile == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(outFile, data, 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Exported to %s\n", outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "file", "f", "", "Write the export to this file")
	cmd.Flags().BoolVar(&save, "save", false, "Write the export into the server's exports directory")
	return cmd
}

// EbookSummary is the compact CLI view of a document.
type EbookSummary struct {
	Title    string            `json:"title" yaml:"title"`
	Summary  string            `json:"summary" yaml:"summary"`
	Cover    ebook.AssetStatus `json:"cover" yaml:"cover"`
	Chapters []ChapterSummary  `json:"chapters" yaml:"chapters"`
}

// ChapterSummary lists a chapter and the status of each of its assets.
type ChapterSummary struct {
	ID     string                                `json:"id" yaml:"id"`
	Title  string                                `json:"title" yaml:"title"`
	Assets map[ebook.AssetType]ebook.AssetStatus `json:"assets" yaml:"assets"`
}

func summarizeEbook(doc *ebook.Ebook) *EbookSummary {
	if doc == nil {
		return nil
	}
	out := &EbookSummary{Title: doc.Title, Summary: doc.Summary, Cover: doc.CoverImage.Status}
	for _, ch := range doc.Chapters {
		cs := ChapterSummary{ID: ch.ID, Title: ch.Title, Assets: make(map[ebook.AssetType]ebook.AssetStatus)}
		for _, t := range ebook.ChapterAssetTypes() {
			if a, ok := ch.Asset(t); ok {
				cs.Assets[t] = a.Status
			}
		}
		out.Chapters = append(out.Chapters, cs)
	}
	return out
}

// bannerMessage returns the live success banner, if any.
func bannerMessage(st *studio.Studio) string {
	if b := st.Banners().Message; b != nil {
		return b.Text
	}
	return ""
}
