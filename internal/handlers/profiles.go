package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"github.com/musihub/backend/internal/logging"
	"github.com/musihub/backend/internal/models"
	"github.com/musihub/backend/internal/repositories"
)

const (
	searchLimit     = 20
	maxBioLength    = 1000
	maxLocationLen  = 200
	maxPictureBytes = 5 << 20
)

var allowedPictureTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

// ProfileHandler serves musician profiles.
type ProfileHandler struct {
	Profiles ProfileStore
	Resolver ProfileResolver
	Pictures PictureStorage
	NowFunc  func() time.Time
}

// Search handles GET /api/v1/profiles?name=.
func (h ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if utf8.RuneCountInString(name) > maxNameLength {
		respondError(ctx, w, http.StatusBadRequest, "name filter is too long")
		return
	}

	profiles, err := h.Profiles.SearchByName(ctx, name, searchLimit)
	if err != nil {
		logging.FromContext(ctx).Error("search profiles", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to search profiles")
		return
	}

	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, newProfileResponse(p))
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"profiles": out})
}

// Me handles GET /api/v1/profiles/me.
func (h ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.Resolver.caller(w, r)
	if !ok {
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, newProfileResponse(profile))
}

// Get handles GET /api/v1/profiles/{id}.
func (h ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.Profiles.FindByID(ctx, mux.Vars(r)["id"])
	h.respondProfile(w, r, profile, err)
}

// GetByUser handles GET /api/v1/users/{id}/profile.
func (h ProfileHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.Profiles.FindByUserID(ctx, mux.Vars(r)["id"])
	h.respondProfile(w, r, profile, err)
}

func (h ProfileHandler) respondProfile(w http.ResponseWriter, r *http.Request, profile models.Profile, err error) {
	ctx := r.Context()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "profile not found")
			return
		}
		logging.FromContext(ctx).Error("load profile", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load profile")
		return
	}
	respondJSON(ctx, w, http.StatusOK, newProfileResponse(profile))
}

// UpdateMe handles PUT /api/v1/profiles/me. Omitted fields keep their value.
func (h ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	profile, ok := h.Resolver.caller(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.apply(&profile); msg != "" {
		respondError(ctx, w, http.StatusBadRequest, msg)
		return
	}

	profile.UpdatedAt = h.now()
	if err := h.Profiles.Update(ctx, profile); err != nil {
		h.writeUpdateError(w, r, err)
		return
	}

	logger.Info("profile updated", "profileId", profile.ID)
	respondJSON(ctx, w, http.StatusOK, newProfileResponse(profile))
}

// UploadPicture handles POST /api/v1/profiles/me/picture with a multipart "picture" field.
func (h ProfileHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Pictures == nil {
		respondError(ctx, w, http.StatusServiceUnavailable, "picture storage is not configured")
		return
	}

	profile, ok := h.Resolver.caller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPictureBytes+1<<10)
	if err := r.ParseMultipartForm(maxPictureBytes); err != nil {
		logger.Warn("invalid picture upload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "picture must be a multipart upload of at most 5 MB")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("picture")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "picture file is required")
		return
	}
	defer file.Close()

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		respondError(ctx, w, http.StatusBadRequest, "unable to read picture")
		return
	}
	contentType := http.DetectContentType(sniff[:n])
	if _, ok := allowedPictureTypes[contentType]; !ok {
		respondError(ctx, w, http.StatusBadRequest, "picture must be a PNG, JPEG, GIF or WebP image")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		logger.Error("rewind picture upload", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to read picture")
		return
	}

	url, err := h.Pictures.SavePicture(ctx, profile.ID, header.Filename, contentType, file)
	if err != nil {
		logger.Error("store picture", "error", err, "profileId", profile.ID)
		respondError(ctx, w, http.StatusBadGateway, "unable to store picture")
		return
	}

	profile.PictureURL = url
	profile.UpdatedAt = h.now()
	if err := h.Profiles.Update(ctx, profile); err != nil {
		h.writeUpdateError(w, r, err)
		return
	}

	logger.Info("profile picture updated", "profileId", profile.ID)
	respondJSON(ctx, w, http.StatusOK, newProfileResponse(profile))
}

func (h ProfileHandler) writeUpdateError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, http.StatusNotFound, "profile not found")
		return
	}
	logging.FromContext(ctx).Error("update profile", "error", err)
	respondError(ctx, w, http.StatusInternalServerError, "unable to update profile")
}

func (h ProfileHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
}

func (req updateProfileRequest) apply(p *models.Profile) string {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return "name must not be empty"
		}
		if utf8.RuneCountInString(name) > maxNameLength {
			return "name is too long"
		}
		p.Name = name
	}
	if req.Bio != nil {
		if utf8.RuneCountInString(*req.Bio) > maxBioLength {
			return "bio is too long"
		}
		p.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.Location != nil {
		if utf8.RuneCountInString(*req.Location) > maxLocationLen {
			return "location is too long"
		}
		p.Location = strings.TrimSpace(*req.Location)
	}
	return ""
}
