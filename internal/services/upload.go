package services

import (
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize caps uploads at 10 MB.
const MaxImageSize = 10 * 1024 * 1024

// UploadDir returns the directory uploaded images are stored in. It is also
// the directory mounted under /static/img.
func UploadDir() string {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "./static/img"
	}
	return dir
}

// SaveImage writes an uploaded image to dir under a fresh uuid-derived name
// and returns the bare filename token. Only that token is persisted; callers
// render it under the /static/img/ prefix.
func SaveImage(file multipart.File, header *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	u := uuid.New()
	name := hex.EncodeToString(u[:]) + strings.ToLower(filepath.Ext(header.Filename))

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}
	return name, nil
}
