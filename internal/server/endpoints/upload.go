package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/timetable/internal/api"
	"github.com/jackzampolin/timetable/internal/importer"
	"github.com/jackzampolin/timetable/internal/ingest"
	"github.com/jackzampolin/timetable/internal/svcctx"
)

// UploadResponse is an import result together with what was read from the file.
type UploadResponse struct {
	Document DocumentInfo `json:"document"`
	*importer.Result
}

// DocumentInfo describes an uploaded source.
type DocumentInfo struct {
	Name  string      `json:"name"`
	Kind  ingest.Kind `json:"kind"`
	Pages int         `json:"pages,omitempty"`
	Sheet string      `json:"sheet,omitempty"`
	Chars int         `json:"chars"`
}

// UploadEndpoint handles POST /api/timetable/upload with a multipart file upload.
type UploadEndpoint struct{}

var _ api.Endpoint = (*UploadEndpoint)(nil)

func (e *UploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/timetable/upload", e.handler
}

func (e *UploadEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Upload and parse a timetable document
//	@Description	Upload a text, CSV, XLSX or PDF timetable. Its text is extracted and parsed like pasted text.
//	@Tags			timetable
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Timetable document (.txt, .tsv, .csv, .xlsx, .pdf)"
//	@Param			remote	formData	bool	false	"Try model-assisted parsing first"
//	@Success		200		{object}	UploadResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/timetable/upload [post]
func (e *UploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := maxBody(ctx)

	// Allow room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	remote, _ := strconv.ParseBool(r.FormValue("remote"))

	doc, err := ingest.Read(fh.Filename, file, limit)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, ingest.ErrTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		default:
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		}
		return
	}

	logger := svcctx.LoggerFrom(ctx)
	logger.Info("timetable uploaded", "name", doc.Name, "kind", doc.Kind, "chars", len(doc.Text))

	res := svcctx.ImporterFrom(ctx).Import(ctx, doc.Text, importer.Options{Remote: remote})
	writeJSON(w, http.StatusOK, UploadResponse{
		Document: DocumentInfo{
			Name:  doc.Name,
			Kind:  doc.Kind,
			Pages: doc.Pages,
			Sheet: doc.Sheet,
			Chars: len(doc.Text),
		},
		Result: res,
	})
}

func (e *UploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a timetable document for parsing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			client := api.NewClient(getServerURL())
			var resp UploadResponse
			values := map[string]string{"remote": strconv.FormatBool(remote)}
			if err := client.PostFile(cmd.Context(), "/api/timetable/upload", "file", filepath.Base(args[0]), f, values, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Try model-assisted parsing first")
	return cmd
}
