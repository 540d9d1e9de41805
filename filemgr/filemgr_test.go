package filemgr

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blackline/apperr"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newManager(t *testing.T, max int64) *Manager {
	t.Helper()
	log, _ := test.NewNullLogger()
	m, err := New(t.TempDir(), max, log)
	require.NoError(t, err)
	return m
}

func multipartRequest(t *testing.T, field string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadSaves(t *testing.T) {
	m := newManager(t, 1<<20)
	rec := httptest.NewRecorder()
	m.Upload(rec, multipartRequest(t, "images", map[string][]byte{"dress.png": pngBytes(t)}), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Message string   `json:"message"`
		Files   []string `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Files uploaded successfully", out.Message)
	require.Len(t, out.Files, 1)
	assert.True(t, strings.HasPrefix(out.Files[0], PublicPrefix))
	assert.True(t, strings.HasSuffix(out.Files[0], ".png"))

	_, err := os.Stat(filepath.Join(m.Dir, strings.TrimPrefix(out.Files[0], PublicPrefix)))
	assert.NoError(t, err)
}

func TestUploadSingle(t *testing.T) {
	m := newManager(t, 1<<20)

	rec := httptest.NewRecorder()
	m.UploadSingle(rec, multipartRequest(t, "image", map[string][]byte{"a.png": pngBytes(t)}), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "File uploaded successfully")

	rec = httptest.NewRecorder()
	m.UploadSingle(rec, multipartRequest(t, "other", map[string][]byte{"a.png": pngBytes(t)}), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No file uploaded")
}

func TestUploadRejects(t *testing.T) {
	cases := map[string]struct {
		name string
		data []byte
		max  int64
		want error
	}{
		"extension":   {"notes.txt", []byte("hello"), 1 << 20, ErrInvalidExtension},
		"sniffed":     {"fake.png", []byte("<html>not an image</html>"), 1 << 20, ErrInvalidMIME},
		"too large":   {"big.png", nil, 16, ErrFileTooLarge},
		"undecodable": {"broken.png", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...), 1 << 20, ErrNotAnImage},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m := newManager(t, tc.max)
			data := tc.data
			if data == nil {
				data = pngBytes(t)
			}
			req := multipartRequest(t, "images", map[string][]byte{tc.name: data})
			require.NoError(t, req.ParseMultipartForm(1<<20))

			_, err := m.Save(req.MultipartForm.File["images"][0])
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestUploadWithoutFiles(t *testing.T) {
	m := newManager(t, 1<<20)
	rec := httptest.NewRecorder()
	m.Upload(rec, multipartRequest(t, "images", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No files uploaded")
}
