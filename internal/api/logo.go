package api

import (
	"net/http"

	"github.com/nyashahama/receipt-dispatch-backend/internal/metrics"
	"github.com/nyashahama/receipt-dispatch-backend/internal/upload"
)

const (
	errNoFile       = "No file uploaded"
	errBadSelection = "Invalid or no selected file"
)

// ─── POST /upload-logo ────────────────────────────────────────────────────────

// handleUploadLogo stores the store logo under its sanitized filename and
// returns the path it can be fetched from. Re-uploading the same name
// overwrites the previous file.
//
// Response 200:
//
//	{ "logoUrl": "/uploads/logo.png" }
func (s *Server) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		metrics.LogoUploads.WithLabelValues("too_large").Inc()
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		metrics.LogoUploads.WithLabelValues("rejected").Inc()
		// A file part sent with an empty filename arrives as a plain value.
		if r.MultipartForm != nil && len(r.MultipartForm.Value["logo"]) > 0 {
			respondErr(w, http.StatusBadRequest, errBadSelection)
			return
		}
		respondErr(w, http.StatusBadRequest, errNoFile)
		return
	}
	defer file.Close()

	if header.Filename == "" ||
		!upload.AllowedFile(header.Filename) ||
		!upload.AllowedFile(upload.SecureFilename(header.Filename)) {
		metrics.LogoUploads.WithLabelValues("rejected").Inc()
		respondErr(w, http.StatusBadRequest, errBadSelection)
		return
	}

	name, err := s.uploads.SaveLogo(header.Filename, file)
	if err != nil {
		metrics.LogoUploads.WithLabelValues("error").Inc()
		s.respondInternalErr(w, r, err)
		return
	}

	metrics.LogoUploads.WithLabelValues("success").Inc()
	s.logger.Info("logo uploaded", "name", name, "size", header.Size, logField(r))
	respond(w, http.StatusOK, map[string]string{"logoUrl": "/uploads/" + name})
}
