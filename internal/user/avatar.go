package user

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"

	"github.com/tahmid/task-manager-api/internal/auth"
	"github.com/tahmid/task-manager-api/internal/webutil"
)

const (
	maxAvatarBytes = 1000000
	avatarSize     = 250
)

// UploadAvatar accepts a multipart jpg/jpeg/png upload of at most 1 MB,
// resize-crops it to a 250x250 PNG and stores it on the user document. A
// rejected upload leaves the stored avatar untouched.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, "please upload a valid image file")
		return
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".jpg", ".jpeg", ".png":
	default:
		webutil.RespondWithError(w, http.StatusBadRequest, "please upload a valid image file")
		return
	}

	avatar, err := processAvatar(file)
	if err != nil {
		webutil.RespondWithError(w, http.StatusBadRequest, "please upload a valid image file")
		return
	}

	user.Avatar = avatar
	if err := h.users.Save(r.Context(), user); err != nil {
		log.Printf("upload avatar: save user: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "avatar uploaded"})
}

// DeleteAvatar clears the stored avatar.
func (h *Handler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	user.Avatar = nil
	if err := h.users.Save(r.Context(), user); err != nil {
		log.Printf("delete avatar: save user: %v", err)
		webutil.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "avatar deleted"})
}

// GetAvatar serves a user's avatar publicly. Missing user and missing avatar
// are both a plain 404.
func (h *Handler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil || len(user.Avatar) == 0 {
		webutil.RespondWithError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(user.Avatar)
}

// processAvatar decodes the upload, fill-crops it to a centered square and
// re-encodes it as PNG.
func processAvatar(rd io.Reader) ([]byte, error) {
	img, err := imaging.Decode(rd)
	if err != nil {
		return nil, err
	}
	img = imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
