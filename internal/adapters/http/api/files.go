package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	service "github.com/okian/isp/internal/app"
	"github.com/okian/isp/internal/adapters/storage"
	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/pkg/logger"
)

// multipartOverhead is the allowance for form boundaries and part headers
// on top of the file size limit.
const multipartOverhead = 64 << 10

type fileInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	UploadedAt  string `json:"uploaded_at"`
}

func newFileInfo(o storage.Object) *fileInfo {
	return &fileInfo{
		ID:          o.ID,
		Name:        o.Name,
		Size:        o.Size,
		ContentType: o.ContentType,
		UploadedAt:  o.UploadedAt.Format(time.RFC3339),
	}
}

type uploadResponse struct {
	Message string    `json:"message"`
	File    *fileInfo `json:"file"`
}

type fileResponse struct {
	Content []record.Raw `json:"content"`
	File    *fileInfo    `json:"file,omitempty"`
	Year    int          `json:"year,omitempty"`
}

// FilesHandler handles roster uploads and retrieval.
type FilesHandler struct {
	deps     Dependencies
	maxBytes int64
	log      logger.Logger
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(deps Dependencies, maxBytes int64, log logger.Logger) *FilesHandler {
	return &FilesHandler{deps: deps, maxBytes: maxBytes, log: log}
}

// HandleUpload handles POST /api/upload with a multipart "file" field.
func (h *FilesHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST, OPTIONS")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			writeFailure(w, WrapKind(op, ErrTooLarge, service.ErrUploadTooLarge))
		case errors.Is(err, http.ErrMissingFile):
			writeFailure(w, WrapKind(op, ErrBadRequest, service.ErrEmptyUpload))
		default:
			writeFailure(w, WrapKind(op, ErrBadRequest, err))
		}
		return
	}
	defer func() { _ = file.Close() }()

	obj, err := h.deps.Upload(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		h.log.Warn(r.Context(), "upload rejected", logger.String("name", header.Filename), logger.Error(err))
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Message: "File uploaded successfully",
		File:    newFileInfo(obj),
	})
}

// HandleFile handles GET /api/file. With ?year it returns the remote roster
// for that cohort; otherwise the parsed current upload.
func (h *FilesHandler) HandleFile(w http.ResponseWriter, r *http.Request) {
	const op = "api.file"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET, OPTIONS")
		return
	}

	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("year must be a number")))
			return
		}
		rows, err := h.deps.FetchRoster(r.Context(), year)
		if err != nil {
			h.log.Warn(r.Context(), "remote roster fetch failed", logger.Int("year", year), logger.Error(err))
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, fileResponse{Content: rows, Year: year})
		return
	}

	rows, obj, err := h.deps.CurrentRoster(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, fileResponse{Content: rows, File: newFileInfo(obj)})
}
