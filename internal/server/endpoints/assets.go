package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/ebook"
	"github.com/jackzampolin/ebookstudio/internal/generate"
	"github.com/jackzampolin/ebookstudio/internal/prompts"
	"github.com/jackzampolin/ebookstudio/internal/store"
	"github.com/jackzampolin/ebookstudio/internal/studio"
)

const maxUploadMemory = 32 << 20

// AssetRequest identifies an asset. AssetID may be omitted and is then
// looked up from the chapter and type.
type AssetRequest = store.Ref

// GenerateAssetRequest asks for one asset to be generated.
type GenerateAssetRequest struct {
	store.Ref
	Context generate.Context `json:"context"`
	Prompts generate.Prompts `json:"prompts"`
}

// AssetResponse is the asset after an action.
type AssetResponse struct {
	Asset   ebook.Asset `json:"asset"`
	Message string      `json:"message,omitempty"`
}

// AssetPromptsResponse holds the default prompts and context for an asset.
type AssetPromptsResponse struct {
	Ref     store.Ref        `json:"ref"`
	Context generate.Context `json:"context"`
	Prompts prompts.Pair     `json:"prompts"`
}

// resolveRef fills in the asset id when the caller only named chapter and type.
func resolveRef(st *studio.Studio, ref store.Ref) (store.Ref, error) {
	if !ref.Type.Valid() {
		return store.Ref{}, fmt.Errorf("%w: %q", generate.ErrUnsupportedType, ref.Type)
	}
	if ref.ID != "" {
		return ref, nil
	}
	return st.Ref(ref.ChapterID, ref.Type)
}

func addAssetFlags(cmd *cobra.Command, ref *store.Ref) {
	cmd.Flags().StringVar((*string)(&ref.Type), "type", "", "Asset type (coverImage, backgroundImage, diagram, chartInfographic, interactiveElement, motivationalQuote)")
	cmd.Flags().StringVar(&ref.ChapterID, "chapter", "", "Chapter id (omit for the cover)")
	cmd.Flags().StringVar(&ref.ID, "asset-id", "", "Asset id (looked up from chapter and type when omitted)")
	_ = cmd.MarkFlagRequired("type")
}

// AssetPromptsEndpoint handles GET /api/assets/prompts.
type AssetPromptsEndpoint struct{}

func (e *AssetPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/assets/prompts", e.handler
}

func (e *AssetPromptsEndpoint) RequiresInit() bool { return true }
func (e *AssetPromptsEndpoint) Group() string      { return "assets" }

// handler godoc
//
//	@Summary		Default prompts for an asset
//	@Description	Render the system and user prompts with the chapter or document context
//	@Tags			assets
//	@Produce		json
//	@Param			type		query		string	true	"Asset type"
//	@Param			chapter_id	query		string	false	"Chapter id (omit for the cover)"
//	@Success		200			{object}	AssetPromptsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/api/assets/prompts [get]
func (e *AssetPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	ref, err := resolveRef(st, store.Ref{ChapterID: q.Get("chapter_id"), Type: ebook.AssetType(q.Get("type"))})
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	c, err := st.DefaultContext(ref)
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	pair, err := st.DefaultPrompts(ref)
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, AssetPromptsResponse{Ref: ref, Context: c, Prompts: pair})
}

func (e *AssetPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var ref store.Ref
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Show the default prompts for an asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			resp, err := fetchAssetPrompts(cmd, client, ref)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	addAssetFlags(cmd, &ref)
	return cmd
}

func fetchAssetPrompts(cmd *cobra.Command, client *api.Client, ref store.Ref) (*AssetPromptsResponse, error) {
	params := url.Values{}
	params.Set("type", string(ref.Type))
	if ref.ChapterID != "" {
		params.Set("chapter_id", ref.ChapterID)
	}
	var resp AssetPromptsResponse
	if err := client.Get(cmd.Context(), "/api/assets/prompts?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateAssetEndpoint handles POST /api/assets/generate.
type GenerateAssetEndpoint struct{}

func (e *GenerateAssetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/assets/generate", e.handler
}

func (e *GenerateAssetEndpoint) RequiresInit() bool { return true }
func (e *GenerateAssetEndpoint) Group() string      { return "assets" }

// handler godoc
//
//	@Summary		Generate an asset
//	@Description	Run text generation, and image generation where the type needs it, and store the result for review
//	@Tags			assets
//	@Accept			json
//	@Produce		json
//	@Param			body	body		GenerateAssetRequest	true	"Asset, context and prompts"
//	@Success		200		{object}	AssetResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/assets/generate [post]
func (e *GenerateAssetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	var req GenerateAssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref, err := resolveRef(st, req.Ref)
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}

	err = st.Generate(r.Context(), generate.Request{Ref: ref, Context: req.Context, Prompts: req.Prompts})
	if err != nil {
		writeStudioError(w, err, http.StatusBadGateway)
		return
	}
	a, err := st.Store().Asset(ref)
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, AssetResponse{Asset: a})
}

func (e *GenerateAssetEndpoint) Command(getServerURL func() string) *cobra.Command {
	var ref store.Ref
	var req GenerateAssetRequest
	var userFile string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an asset with AI",
		Long: `Generate an asset with AI.

Prompts default to the server's rendered templates for the asset. Use
--user or --user-file to send an edited user prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if userFile != "" {
				data, err := os.ReadFile(userFile)
				if err != nil {
					return fmt.Errorf("failed to read user prompt: %w", err)
				}
				req.Prompts.User = string(data)
			}
			if req.Prompts.User == "" || req.Prompts.System == "" {
				defaults, err := fetchAssetPrompts(cmd, client, ref)
				if err != nil {
					return err
				}
				ref = defaults.Ref
				if req.Prompts.User == "" {
					req.Prompts.User = defaults.Prompts.User
				}
				if req.Prompts.System == "" {
					req.Prompts.System = defaults.Prompts.System
				}
			}
			req.Ref = ref

			var resp AssetResponse
			if err := client.Post(cmd.Context(), "/api/assets/generate", req, &resp); err != nil {
				return err
			}
			return api.Output(resp.Asset)
		},
	}
	addAssetFlags(cmd, &ref)
	cmd.Flags().StringVar(&req.Prompts.System, "system", "", "System prompt")
	cmd.Flags().StringVar(&req.Prompts.User, "user", "", "User prompt")
	cmd.Flags().StringVar(&userFile, "user-file", "", "Read the user prompt from a file")
	cmd.Flags().StringVar(&req.Context.Concept, "concept", "", "Concept for the interactive element")
	return cmd
}

// ApproveAssetEndpoint handles POST /api/assets/approve.
type ApproveAssetEndpoint struct{}

func (e *ApproveAssetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/assets/approve", e.handler
}

func (e *ApproveAssetEndpoint) RequiresInit() bool { return true }
func (e *ApproveAssetEndpoint) Group() string      { return "assets" }

// handler godoc
//
//	@Summary		Approve an asset
//	@Description	Accept the generated or uploaded content as final
//	@Tags			assets
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AssetRequest	true	"Asset"
//	@Success		200		{object}	AssetResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/assets/approve [post]
func (e *ApproveAssetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	handleAssetAction(w, r, (*studio.Studio).Approve)
}

func (e *ApproveAssetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return assetActionCommand(getServerURL, "approve", "Approve an asset as final", "/api/assets/approve")
}

// ClearAssetEndpoint handles POST /api/assets/clear.
type ClearAssetEndpoint struct{}

func (e *ClearAssetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/assets/clear", e.handler
}

func (e *ClearAssetEndpoint) RequiresInit() bool { return true }
func (e *ClearAssetEndpoint) Group() string      { return "assets" }

// handler godoc
//
//	@Summary		Clear an asset
//	@Description	Reset the asset to idle, discarding generated and uploaded content
//	@Tags			assets
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AssetRequest	true	"Asset"
//	@Success		200		{object}	AssetResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/assets/clear [post]
func (e *ClearAssetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	handleAssetAction(w, r, (*studio.Studio).Clear)
}

func (e *ClearAssetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return assetActionCommand(getServerURL, "clear", "Clear an asset back to idle", "/api/assets/clear")
}

func handleAssetAction(w http.ResponseWriter, r *http.Request, action func(*studio.Studio, store.Ref) (ebook.Asset, error)) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	var req AssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref, err := resolveRef(st, req)
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	a, err := action(st, ref)
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, AssetResponse{Asset: a, Message: bannerMessage(st)})
}

func assetActionCommand(getServerURL func() string, use, short, path string) *cobra.Command {
	var ref store.Ref
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp AssetResponse
			if err := client.Post(cmd.Context(), path, ref, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	addAssetFlags(cmd, &ref)
	return cmd
}

// UploadAssetEndpoint handles POST /api/assets/upload.
type UploadAssetEndpoint struct{}

func (e *UploadAssetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/assets/upload", e.handler
}

func (e *UploadAssetEndpoint) RequiresInit() bool { return true }
func (e *UploadAssetEndpoint) Group() string      { return "assets" }

// handler godoc
//
//	@Summary		Upload an asset
//	@Description	Replace the asset with a user file. Images are stored as data URLs, text files as content.
//	@Tags			assets
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"Image or text file"
//	@Param			type		formData	string	true	"Asset type"
//	@Param			chapter_id	formData	string	false	"Chapter id (omit for the cover)"
//	@Param			asset_id	formData	string	false	"Asset id"
//	@Success		200			{object}	AssetResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/api/assets/upload [post]
func (e *UploadAssetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file: "+err.Error())
		return
	}

	ref, err := resolveRef(st, store.Ref{
		ID:        r.FormValue("asset_id"),
		ChapterID: r.FormValue("chapter_id"),
		Type:      ebook.AssetType(r.FormValue("type")),
	})
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}

	a, err := st.Upload(ref, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, AssetResponse{Asset: a, Message: bannerMessage(st)})
}

func (e *UploadAssetEndpoint) Command(getServerURL func() string) *cobra.Command {
	var ref store.Ref
	var path string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload an image or text file for an asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			fields := map[string]string{"type": string(ref.Type)}
			if ref.ChapterID != "" {
				fields["chapter_id"] = ref.ChapterID
			}
			if ref.ID != "" {
				fields["asset_id"] = ref.ID
			}

			client := api.NewClient(getServerURL())
			var resp AssetResponse
			if err := client.PostMultipart(cmd.Context(), "/api/assets/upload", fields, "file", filepath.Base(path), data, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	addAssetFlags(cmd, &ref)
	cmd.Flags().StringVar(&path, "file", "", "File to upload")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
