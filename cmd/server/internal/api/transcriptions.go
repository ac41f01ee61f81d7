package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator"
)

// allowedExtensions 上传文件的容器格式，实际解码交给 ffmpeg
var allowedExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".m4a": true, ".ogg": true,
	".flac": true, ".webm": true, ".mp4": true, ".aac": true,
}

// Runner runs the pipeline for one file.
type Runner interface {
	Run(ctx context.Context, path string) (*orchestrator.State, error)
}

// TranscriptionHandler serves the upload endpoint.
type TranscriptionHandler struct {
	runner      Runner
	uploadDir   string
	maxUploadMB int64
	logger      *slog.Logger
}

// NewTranscriptionHandler creates the handler. An empty uploadDir uses the
// system temp directory.
func NewTranscriptionHandler(runner Runner, uploadDir string, maxUploadMB int64, logger *slog.Logger) *TranscriptionHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptionHandler{runner: runner, uploadDir: uploadDir, maxUploadMB: maxUploadMB, logger: logger}
}

// Create handles POST /api/v1/transcriptions (multipart field "file").
// ?format=markdown returns the rendered document instead of JSON.
func (h *TranscriptionHandler) Create(c *gin.Context) {
	limit := h.maxUploadMB << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			errorResponse(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB", h.maxUploadMB))
			return
		}
		badRequestResponse(c, "missing multipart field \"file\"")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		badRequestResponse(c, fmt.Sprintf("unsupported file type %q", ext))
		return
	}

	path, err := h.save(fileHeader, ext)
	if err != nil {
		internalErrorResponse(c, err)
		return
	}
	defer os.Remove(path)

	log := h.logger.With("request_id", requestID(c), "upload", fileHeader.Filename)
	log.Info("transcription requested", "size", fileHeader.Size)

	state, err := h.runner.Run(c.Request.Context(), path)
	if err != nil {
		code := orchestrator.CodeOf(err)
		log.Error("transcription failed", "code", code, "error", err)

		var oe *orchestrator.OrchError
		if errors.As(err, &oe) {
			c.JSON(oe.HTTPStatus(), gin.H{
				"error":      oe.Message,
				"code":       code,
				"detail":     err.Error(),
				"request_id": requestID(c),
			})
			return
		}
		internalErrorResponse(c, err)
		return
	}
	state.SourceFile = fileHeader.Filename

	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(state.Markdown()))
		return
	}
	c.JSON(http.StatusOK, state.Result())
}

func (h *TranscriptionHandler) save(fh *multipart.FileHeader, ext string) (string, error) {
	in, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer in.Close()

	out, err := os.CreateTemp(h.uploadDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}
