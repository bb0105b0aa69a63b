package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"villagemap/ingest"
	"villagemap/shapefile"
)

// maxUploadBytes caps one multipart upload; large state extracts run to a few
// hundred MB of raw components.
const maxUploadBytes = 256 << 20

// uploadFieldName is the multipart form field carrying the component files.
const uploadFieldName = "files"

// UploadHandler receives shapefile component uploads and drives the ingestion
// pipeline.
type UploadHandler struct {
	Store     ingest.BulkWriter
	UploadDir string
	BatchSize int
}

// HandleUpload saves the uploaded component set under a per-request temp dir
// and runs the full ingestion pipeline on it. The pipeline deletes the files
// on every exit path; the directory removal here is the backstop.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	files, dir, ok := h.saveUpload(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(dir)

	res := ingest.Run(r.Context(), files, h.Store, h.BatchSize, func(processed, errorCount int) {
		log.Printf("ingest progress: %d processed, %d errors", processed, errorCount)
	})
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, envelope{Success: res.Success, Data: res})
}

// HandleValidate checks the component set by name only; nothing is saved.
func (h *UploadHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	var files []shapefile.FileDescriptor
	for _, fh := range r.MultipartForm.File[uploadFieldName] {
		files = append(files, shapefile.FileDescriptor{Name: fh.Filename})
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}
	if _, err := shapefile.ValidateComponents(files); err != nil {
		var missing *shapefile.MissingComponentsError
		if errors.As(err, &missing) {
			writeJSON(w, http.StatusBadRequest, envelope{
				Success: false,
				Error:   err.Error(),
				Data:    map[string]interface{}{"missing": missing.Missing},
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"valid": true})
}

// HandleMetadata saves the upload and reports feature count and field names
// without writing anything to the store.
func (h *UploadHandler) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	files, dir, ok := h.saveUpload(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(dir)

	set, err := shapefile.ValidateComponents(files)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	md, err := shapefile.ExtractMetadata(set)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeData(w, http.StatusOK, md)
}

// saveUpload writes each uploaded component into a uuid-named temp dir,
// keeping the original base names so the .shp/.dbf pairing survives.
func (h *UploadHandler) saveUpload(w http.ResponseWriter, r *http.Request) ([]shapefile.FileDescriptor, string, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, "", false
	}
	headers := r.MultipartForm.File[uploadFieldName]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return nil, "", false
	}

	dir := filepath.Join(h.UploadDir, "upload-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "could not stage upload")
		return nil, "", false
	}

	var files []shapefile.FileDescriptor
	for _, fh := range headers {
		dst := filepath.Join(dir, filepath.Base(fh.Filename))
		if err := saveMultipartFile(fh, dst); err != nil {
			log.Printf("save upload %s: %v", fh.Filename, err)
			os.RemoveAll(dir)
			writeError(w, http.StatusInternalServerError, "could not save uploaded file")
			return nil, "", false
		}
		files = append(files, shapefile.FileDescriptor{Name: fh.Filename, Path: dst})
	}
	return files, dir, true
}

func saveMultipartFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
