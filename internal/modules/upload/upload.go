package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/littlenest/core/internal/config"
	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/models"
	"github.com/littlenest/core/internal/pkg/response"
)

// maxUploadBytes caps a single file. Videos from phones routinely hit
// tens of megabytes, so the limit is generous.
const maxUploadBytes = 50 << 20

var allowedExtensions = map[string]string{
	".jpg":  "image",
	".jpeg": "image",
	".png":  "image",
	".gif":  "image",
	".webp": "image",
	".mp4":  "video",
	".mov":  "video",
	".webm": "video",
	".pdf":  "file",
}

type Result struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Type     string `json:"type"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

type Service struct {
	uploader *s3Uploader
	logger   *zap.Logger
}

// NewService returns a nil-uploader service when S3 is not configured;
// upload requests then fail with a clear error instead of at startup.
func NewService(opts config.S3Options, logger *zap.Logger) *Service {
	uploader, err := newS3Uploader(opts)
	if err != nil {
		logger.Warn("s3 uploads disabled", zap.Error(err))
		return &Service{logger: logger}
	}
	return &Service{uploader: uploader, logger: logger}
}

func (s *Service) Enabled() bool { return s.uploader != nil }

func (s *Service) Store(c *gin.Context, header *multipart.FileHeader) (*Result, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("uploads are not configured")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	kind, ok := allowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
	if header.Size > maxUploadBytes {
		return nil, fmt.Errorf("file exceeds %d MB limit", maxUploadBytes>>20)
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	payload, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(payload) > maxUploadBytes {
		return nil, fmt.Errorf("file exceeds %d MB limit", maxUploadBytes>>20)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(payload)
	}

	key := "uploads/" + uuid.New().String() + ext
	publicURL, err := s.uploader.Upload(c.Request.Context(), key, payload, contentType)
	if err != nil {
		s.logger.Error("s3 upload failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	s.logger.Info("file uploaded",
		zap.String("key", key),
		zap.String("user", middleware.CurrentUserID(c)),
		zap.Int64("size", header.Size))

	return &Result{
		URL:      publicURL,
		Key:      key,
		Type:     kind,
		FileName: header.Filename,
		Size:     header.Size,
		MimeType: contentType,
	}, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/upload", middleware.RequireRole(models.RoleAdmin, models.RoleTeacher))
	g.POST("", h.upload)
	g.POST("/batch", h.uploadBatch)
}

func (h *Handler) upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	result, err := h.svc.Store(c, header)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Created(c, result)
}

// uploadBatch stores up to 10 files from one multipart request. Failures
// are reported per file so one bad entry does not void the rest.
func (h *Handler) uploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "multipart form is required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.BadRequest(c, "files is required")
		return
	}
	if len(files) > 10 {
		response.BadRequest(c, "at most 10 files per request")
		return
	}

	type batchEntry struct {
		FileName string  `json:"fileName"`
		Error    string  `json:"error,omitempty"`
		Result   *Result `json:"result,omitempty"`
	}
	entries := make([]batchEntry, 0, len(files))
	for _, header := range files {
		entry := batchEntry{FileName: header.Filename}
		if result, err := h.svc.Store(c, header); err != nil {
			entry.Error = err.Error()
		} else {
			entry.Result = result
		}
		entries = append(entries, entry)
	}
	response.OK(c, entries)
}
