package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"chat-server/internal/auth"
	"chat-server/internal/models"
	"chat-server/pkg/logger"
)

var allowedExtensions = map[string]struct{}{
	".txt": {}, ".pdf": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// UploadHandlers stores uploaded files and hands back a URL the client can
// reference from an image message. The chat core never touches the file.
type UploadHandlers struct {
	authService *auth.Service
	dir         string
	maxBytes    int64
}

func NewUploadHandlers(authService *auth.Service, dir string, maxBytes int64) (*UploadHandlers, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &UploadHandlers{
		authService: authService,
		dir:         dir,
		maxBytes:    maxBytes,
	}, nil
}

func (h *UploadHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(h.authService, w, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		http.Error(w, "invalid filename", http.StatusBadRequest)
		return
	}
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]; !ok {
		http.Error(w, "invalid file type", http.StatusBadRequest)
		return
	}

	dst, err := os.Create(filepath.Join(h.dir, filename))
	if err != nil {
		logger.Error("Upload create error: %v", err)
		http.Error(w, "could not store file", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		logger.Error("Upload write error: %v", err)
		http.Error(w, "could not store file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.UploadResponse{
		Filename: filename,
		URL:      "/uploads/" + filename,
	})
}

// sanitizeFilename strips path components and anything outside a safe
// character set.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" || !strings.Contains(name, ".") {
		return ""
	}
	return name
}
