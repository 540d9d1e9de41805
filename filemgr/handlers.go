package filemgr

import (
	"errors"
	"net/http"

	"blackline/apperr"
	"blackline/utils"

	"github.com/julienschmidt/httprouter"
)

const maxFiles = 10

func (m *Manager) parse(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, m.limit()*maxFiles+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return rejected("body", ErrFileTooLarge)
		}
		return apperr.Validation(apperr.Field("body", "Invalid multipart payload"))
	}
	return nil
}

// Upload accepts up to maxFiles images in the "images" field.
func (m *Manager) Upload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := m.parse(w, r); err != nil {
		utils.RespondWithError(w, m.Log, err)
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.RespondWithError(w, m.Log, apperr.Validation(apperr.Field("images", "No files uploaded")))
		return
	}
	if len(files) > maxFiles {
		utils.RespondWithError(w, m.Log, apperr.Validation(apperr.Field("images", "Too many files")))
		return
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := m.Save(fh)
		if err != nil {
			utils.RespondWithError(w, m.Log, err)
			return
		}
		urls = append(urls, url)
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Files uploaded successfully",
		"files":   urls,
	})
}

// UploadSingle accepts one image in the "image" field.
func (m *Manager) UploadSingle(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := m.parse(w, r); err != nil {
		utils.RespondWithError(w, m.Log, err)
		return
	}
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		utils.RespondWithError(w, m.Log, apperr.Validation(apperr.Field("image", "No file uploaded")))
		return
	}
	url, err := m.Save(files[0])
	if err != nil {
		utils.RespondWithError(w, m.Log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "File uploaded successfully",
		"file":    url,
	})
}
