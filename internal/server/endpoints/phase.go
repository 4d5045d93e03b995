package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/ebookstudio/internal/api"
	"github.com/jackzampolin/ebookstudio/internal/wizard"
)

// GetPhaseEndpoint handles GET /api/phase.
type GetPhaseEndpoint struct{}

func (e *GetPhaseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/phase", e.handler
}

func (e *GetPhaseEndpoint) RequiresInit() bool { return true }
func (e *GetPhaseEndpoint) Group() string      { return "phase" }

// handler godoc
//
//	@Summary	Current wizard phase
//	@Tags		phase
//	@Produce	json
//	@Success	200	{object}	wizard.Status
//	@Router		/api/phase [get]
func (e *GetPhaseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st.PhaseStatus())
}

func (e *GetPhaseEndpoint) Command(getServerURL func() string) *cobra.Command {
	return phaseCommand(getServerURL, "get", "Show the current phase", "GET", "/api/phase")
}

// NextPhaseEndpoint handles POST /api/phase/next.
type NextPhaseEndpoint struct{}

func (e *NextPhaseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/phase/next", e.handler
}

func (e *NextPhaseEndpoint) RequiresInit() bool { return true }
func (e *NextPhaseEndpoint) Group() string      { return "phase" }

// handler godoc
//
//	@Summary		Advance to the next phase
//	@Description	Fails with 409 while the current phase is incomplete
//	@Tags			phase
//	@Produce		json
//	@Success		200	{object}	wizard.Status
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/phase/next [post]
func (e *NextPhaseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	if _, err := st.Next(); err != nil {
		writeStudioError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st.PhaseStatus())
}

func (e *NextPhaseEndpoint) Command(getServerURL func() string) *cobra.Command {
	return phaseCommand(getServerURL, "next", "Advance to the next phase", "POST", "/api/phase/next")
}

// PrevPhaseEndpoint handles POST /api/phase/prev.
type PrevPhaseEndpoint struct{}

func (e *PrevPhaseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/phase/prev", e.handler
}

func (e *PrevPhaseEndpoint) RequiresInit() bool { return true }
func (e *PrevPhaseEndpoint) Group() string      { return "phase" }

// handler godoc
//
//	@Summary	Go back one phase
//	@Tags		phase
//	@Produce	json
//	@Success	200	{object}	wizard.Status
//	@Router		/api/phase/prev [post]
func (e *PrevPhaseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	st.Prev()
	writeJSON(w, http.StatusOK, st.PhaseStatus())
}

func (e *PrevPhaseEndpoint) Command(getServerURL func() string) *cobra.Command {
	return phaseCommand(getServerURL, "prev", "Go back one phase", "POST", "/api/phase/prev")
}

func phaseCommand(getServerURL func() string, use, short, method, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp wizard.Status
			var err error
			if method == "GET" {
				err = client.Get(cmd.Context(), path, &resp)
			} else {
				err = client.Post(cmd.Context(), path, nil, &resp)
			}
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// NotificationsEndpoint handles GET /api/notifications.
type NotificationsEndpoint struct{}

func (e *NotificationsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/notifications", e.handler
}

func (e *NotificationsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Live banners
//	@Description	The current error and success banners. Expired banners are omitted.
//	@Tags			notifications
//	@Produce		json
//	@Success		200	{object}	notify.Banners
//	@Router			/api/notifications [get]
func (e *NotificationsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st, ok := requireStudio(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st.Banners())
}

func (e *NotificationsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "Show the live error and success banners",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp map[string]any
			if err := client.Get(cmd.Context(), "/api/notifications", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

