package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ReadImageUpload reads the image file sent in field of a multipart form. Requests
// larger than maxBytes are rejected.
func ReadImageUpload(c *gin.Context, field string, maxBytes int64) (string, []byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	if err := c.Request.ParseMultipartForm(maxBytes); err != nil {
		return "", nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	file, err := c.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("field '%s' is required: %w", field, err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExtensions[ext] {
		return "", nil, fmt.Errorf("unsupported photo type %q", ext)
	}

	f, err := file.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return file.Filename, data, nil
}
