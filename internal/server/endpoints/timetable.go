package endpoints

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/timetable/internal/api"
	"github.com/jackzampolin/timetable/internal/importer"
	"github.com/jackzampolin/timetable/internal/svcctx"
	"github.com/jackzampolin/timetable/internal/timetable"
)

// defaultMaxBody applies when no configuration is in context.
const defaultMaxBody int64 = 10 << 20

// ParseRequest is the request body for parsing pasted text.
type ParseRequest struct {
	Text string `json:"text"`
	// Remote asks for a model-assisted parse ahead of the local parser.
	Remote bool `json:"remote,omitempty"`
}

// DetectResponse names the detected layout.
type DetectResponse struct {
	Format timetable.Format `json:"format"`
}

// ExtractResponse holds the fields found on each non-empty line.
type ExtractResponse struct {
	Lines []ExtractedLine `json:"lines"`
}

// ExtractedLine is the token extraction of one line.
type ExtractedLine struct {
	Text        string `json:"text"`
	Subject     string `json:"subject"`
	Code        string `json:"code,omitempty"`
	Room        string `json:"room,omitempty"`
	Teacher     string `json:"teacher,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

func maxBody(ctx context.Context) int64 {
	if cfg := svcctx.ConfigFrom(ctx); cfg != nil && cfg.Import.MaxUploadBytes > 0 {
		return cfg.Import.MaxUploadBytes
	}
	return defaultMaxBody
}

// ParseEndpoint handles POST /api/timetable/parse.
type ParseEndpoint struct{}

var _ api.Endpoint = (*ParseEndpoint)(nil)

func (e *ParseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/timetable/parse", e.handler
}

func (e *ParseEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Parse timetable text
//	@Description	Parse pasted timetable text into a complete schedule. Never fails on content: unusable input yields the default schedule with fallback set.
//	@Tags			timetable
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ParseRequest	true	"Text to parse"
//	@Success		200		{object}	importer.Result
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Router			/api/timetable/parse [post]
func (e *ParseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !decodeBody(w, r, maxBody(r.Context()), &req) {
		return
	}

	imp := svcctx.ImporterFrom(r.Context())
	res := imp.Import(r.Context(), req.Text, importer.Options{Remote: req.Remote})
	writeJSON(w, http.StatusOK, res)
}

func (e *ParseEndpoint) Command(getServerURL func() string) *cobra.Command {
	var text string
	var remote bool
	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse timetable text on the server",
		Long: `Parse timetable text on the server.

Text comes from --text, a file argument, or stdin ("-" or no argument).
Use "api upload" for spreadsheets and PDFs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(text, args)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp importer.Result
			if err := client.Post(cmd.Context(), "/api/timetable/parse", ParseRequest{Text: input, Remote: remote}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Timetable text to parse")
	cmd.Flags().BoolVar(&remote, "remote", false, "Try model-assisted parsing first")
	return cmd
}

// DetectEndpoint handles POST /api/timetable/detect.
type DetectEndpoint struct{}

var _ api.Endpoint = (*DetectEndpoint)(nil)

func (e *DetectEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/timetable/detect", e.handler
}

func (e *DetectEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Detect timetable layout
//	@Tags		timetable
//	@Accept		json
//	@Produce	json
//	@Param		request	body		ParseRequest	true	"Text to inspect"
//	@Success	200		{object}	DetectResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/timetable/detect [post]
func (e *DetectEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !decodeBody(w, r, maxBody(r.Context()), &req) {
		return
	}
	writeJSON(w, http.StatusOK, DetectResponse{Format: timetable.DetectFormat(req.Text)})
}

func (e *DetectEndpoint) Command(getServerURL func() string) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "detect [file|-]",
		Short: "Detect the layout of timetable text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(text, args)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp DetectResponse
			if err := client.Post(cmd.Context(), "/api/timetable/detect", ParseRequest{Text: input}, &resp); err != nil {
				return err
			}
			fmt.Println(resp.Format)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Timetable text to inspect")
	return cmd
}

// ExtractEndpoint handles POST /api/timetable/extract.
type ExtractEndpoint struct{}

var _ api.Endpoint = (*ExtractEndpoint)(nil)

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/timetable/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Extract class fields
//	@Description	Run the subject, code, room and teacher extractors over each non-empty line.
//	@Tags			timetable
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ParseRequest	true	"Lines to extract from"
//	@Success		200		{object}	ExtractResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/timetable/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !decodeBody(w, r, maxBody(r.Context()), &req) {
		return
	}
	writeJSON(w, http.StatusOK, extractLines(req.Text))
}

func extractLines(text string) ExtractResponse {
	resp := ExtractResponse{Lines: []ExtractedLine{}}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c := timetable.ExtractClass(line)
		resp.Lines = append(resp.Lines, ExtractedLine{
			Text:        line,
			Subject:     c.Subject,
			Code:        c.Code,
			Room:        c.Room,
			Teacher:     c.Teacher,
			Placeholder: timetable.IsPlaceholder(c.Subject),
		})
	}
	return resp
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <line>...",
		Short: "Extract subject, code, room and teacher from lines of text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ExtractResponse
			if err := client.Post(cmd.Context(), "/api/timetable/extract", ParseRequest{Text: strings.Join(args, "\n")}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DefaultScheduleEndpoint handles GET /api/timetable/default.
type DefaultScheduleEndpoint struct{}

var _ api.Endpoint = (*DefaultScheduleEndpoint)(nil)

func (e *DefaultScheduleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/timetable/default", e.handler
}

func (e *DefaultScheduleEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Default schedule
//	@Description	The empty ten-day, five-period schedule used when nothing can be parsed.
//	@Tags			timetable
//	@Produce		json
//	@Success		200	{object}	timetable.Schedule
//	@Router			/api/timetable/default [get]
func (e *DefaultScheduleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timetable.DefaultSchedule())
}

func (e *DefaultScheduleEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Show the default schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp timetable.Schedule
			if err := client.Get(cmd.Context(), "/api/timetable/default", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
