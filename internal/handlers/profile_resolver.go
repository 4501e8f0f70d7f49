package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/musihub/backend/internal/auth"
	"github.com/musihub/backend/internal/logging"
	"github.com/musihub/backend/internal/models"
	"github.com/musihub/backend/internal/repositories"
)

var errUnauthenticated = errors.New("request is not authenticated")

// ProfileResolver finds the profile of the authenticated caller, recreating the
// default profile when an account lost it.
type ProfileResolver struct {
	Users    UserStore
	Profiles ProfileStore
	NowFunc  func() time.Time
}

// Own returns the profile owned by userID.
func (p ProfileResolver) Own(ctx context.Context, userID string) (models.Profile, error) {
	profile, err := p.Profiles.FindByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return models.Profile{}, fmt.Errorf("find profile for user: %w", err)
	}

	user, err := p.Users.FindByID(ctx, userID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("find user for default profile: %w", err)
	}

	now := time.Now().UTC()
	if p.NowFunc != nil {
		now = p.NowFunc()
	}
	profile = models.DefaultProfile(uuid.NewString(), user, now)

	if err := p.Profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return p.Profiles.FindByUserID(ctx, userID)
		}
		return models.Profile{}, fmt.Errorf("create default profile: %w", err)
	}

	logging.FromContext(ctx).Info("recreated default profile", "profileId", profile.ID)
	return profile, nil
}

// caller resolves the authenticated user's profile and answers the request itself on failure.
func (p ProfileResolver) caller(w http.ResponseWriter, r *http.Request) (models.Profile, bool) {
	ctx := r.Context()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, errUnauthenticated.Error())
		return models.Profile{}, false
	}

	profile, err := p.Own(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusUnauthorized, "account no longer exists")
			return models.Profile{}, false
		}
		logging.FromContext(ctx).Error("resolve caller profile", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load profile")
		return models.Profile{}, false
	}

	return profile, true
}
