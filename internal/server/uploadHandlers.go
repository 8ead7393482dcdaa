package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	maxImageSize = 5 << 20
	maxPDFSize   = 20 << 20
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// saveUpload streams a multipart file to the upload directory under a random
// name and returns the path relative to UploadDir.
func (s Server) saveUpload(file io.Reader, subdir string, ext string) (string, error) {
	dir := filepath.Join(s.UploadDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer func() {
		_ = dst.Close()
	}()
	if _, err = io.Copy(dst, file); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(subdir, name)), nil
}

// sniffContentType reads the first 512 bytes of the file and seeks back.
func sniffContentType(file io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func (s Server) uploadImage() http.HandlerFunc {
	type response struct {
		Path string `json:"path"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
		file, _, err := r.FormFile("image")
		if err != nil {
			s.Logger.Debugf("uploadImage: Error reading form file, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		defer func() {
			_ = file.Close()
		}()

		contentType, err := sniffContentType(file)
		if err != nil {
			s.Logger.Errorf("uploadImage: Error sniffing content type, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		ext, ok := imageExtensions[contentType]
		if !ok {
			http.Error(w, "Unsupported image type: "+contentType, http.StatusUnprocessableEntity)
			return
		}

		path, err := s.saveUpload(file, "images", ext)
		if err != nil {
			s.Logger.Errorf("uploadImage: Error saving file, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("uploadImage: Saved %s", path)
		s.writeJsonResponse(w, response{Path: path}, http.StatusOK)
	}
}

func (s Server) uploadPDF() http.HandlerFunc {
	type response struct {
		Path string `json:"path"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxPDFSize)
		file, header, err := r.FormFile("pdf")
		if err != nil {
			s.Logger.Debugf("uploadPDF: Error reading form file, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		defer func() {
			_ = file.Close()
		}()

		contentType, err := sniffContentType(file)
		if err != nil {
			s.Logger.Errorf("uploadPDF: Error sniffing content type, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		// DetectContentType reports PDFs as application/pdf from the %PDF magic
		if contentType != "application/pdf" && !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
			http.Error(w, "Unsupported file type: "+contentType, http.StatusUnprocessableEntity)
			return
		}

		path, err := s.saveUpload(file, "documents", ".pdf")
		if err != nil {
			s.Logger.Errorf("uploadPDF: Error saving file, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("uploadPDF: Saved %s", path)
		s.writeJsonResponse(w, response{Path: path}, http.StatusOK)
	}
}
