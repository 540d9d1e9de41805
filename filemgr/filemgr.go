// Package filemgr validates uploaded images and writes them under the upload
// directory with generated names.
package filemgr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"blackline/apperr"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
)

// PublicPrefix is where saved files are served from.
const PublicPrefix = "/uploads/"

var allowed = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var (
	ErrInvalidExtension = errors.New("invalid file extension")
	ErrInvalidMIME      = errors.New("invalid MIME type")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
	ErrNotAnImage       = errors.New("file is not a decodable image")
)

type Manager struct {
	Dir      string
	MaxBytes int64
	Log      logrus.FieldLogger
}

func New(dir string, maxBytes int64, log logrus.FieldLogger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Manager{Dir: dir, MaxBytes: maxBytes, Log: log}, nil
}

// Save validates one upload and returns its public URL. JPEG and PNG are
// re-encoded after auto-orientation, which also drops EXIF; GIF and WebP are
// decoded as a check and then stored as sent.
func (m *Manager) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	want, ok := allowed[ext]
	if !ok {
		return "", rejected(fh.Filename, fmt.Errorf("%w: %q", ErrInvalidExtension, ext))
	}
	if m.MaxBytes > 0 && fh.Size > m.MaxBytes {
		return "", rejected(fh.Filename, ErrFileTooLarge)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, m.limit()+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buf)) > m.limit() {
		return "", rejected(fh.Filename, ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(buf)
	if mimeType != want && !(ext == ".webp" && mimeType == "application/octet-stream") {
		return "", rejected(fh.Filename, fmt.Errorf("%w: %s", ErrInvalidMIME, mimeType))
	}

	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return "", rejected(fh.Filename, ErrNotAnImage)
	}

	name := uuid.New().String() + ext
	path := filepath.Join(m.Dir, name)
	switch ext {
	case ".jpg", ".jpeg", ".png":
		err = imaging.Save(img, path, imaging.JPEGQuality(90))
	default:
		err = os.WriteFile(path, buf, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	b := img.Bounds()
	m.Log.WithFields(logrus.Fields{
		"file":   name,
		"bytes":  len(buf),
		"mime":   mimeType,
		"width":  b.Dx(),
		"height": b.Dy(),
	}).Info("upload saved")
	return PublicPrefix + name, nil
}

func (m *Manager) limit() int64 {
	if m.MaxBytes > 0 {
		return m.MaxBytes
	}
	return 10 << 20
}

func rejected(filename string, err error) error {
	return &apperr.Error{
		Code:    apperr.CodeValidation,
		Message: "Only image files are allowed",
		Fields:  []apperr.FieldError{apperr.Field(filename, err.Error())},
		Err:     err,
	}
}
