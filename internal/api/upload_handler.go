package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"olimpiad/internal/dto/resp"
	"olimpiad/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const uploadsURLPrefix = "/uploads"

var allowedUploadExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true,
}

// UploadHandler stores avatar and image feature files on local disk. The
// returned URL is what clients put into avatar or an image feature value.
type UploadHandler struct {
	dir      string
	maxBytes int64
}

func NewUploadHandler(dir string, maxBytes int64) (*UploadHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &UploadHandler{dir: dir, maxBytes: maxBytes}, nil
}

func (h *UploadHandler) Dir() string {
	return h.dir
}

func (h *UploadHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	file, err := c.FormFile("file")
	if err != nil {
		abortDetail(c, http.StatusBadRequest, "file is required")
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedUploadExt[ext] {
		abortDetail(c, http.StatusBadRequest, "unsupported file type "+ext)
		return
	}

	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		handleError(c, fmt.Errorf("save upload: %w", err))
		return
	}

	logger.Info("file uploaded",
		zap.String("name", name),
		zap.String("original", file.Filename),
		zap.Int64("size", file.Size))
	c.JSON(http.StatusOK, resp.UploadResponse{URL: uploadsURLPrefix + "/" + name})
}
