package handlers

import (
	"time"

	"github.com/musihub/backend/internal/connections"
	"github.com/musihub/backend/internal/models"
)

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

type profileResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Bio        string    `json:"bio"`
	Location   string    `json:"location"`
	PictureURL string    `json:"pictureUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newProfileResponse(p models.Profile) profileResponse {
	return profileResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		Name:       p.Name,
		Email:      p.Email,
		Bio:        p.Bio,
		Location:   p.Location,
		PictureURL: p.PictureURL,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func optionalProfile(p *models.Profile) *profileResponse {
	if p == nil {
		return nil
	}
	out := newProfileResponse(*p)
	return &out
}

type tokensResponse struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

func newTokensResponse(t models.SessionTokens) tokensResponse {
	return tokensResponse{
		AccessToken:      t.AccessToken,
		AccessExpiresAt:  t.AccessExpiresAt,
		RefreshToken:     t.RefreshToken,
		RefreshExpiresAt: t.RefreshExpiresAt,
	}
}

type connectionResponse struct {
	ID          string     `json:"id"`
	InitiatorID string     `json:"profile_id_1"`
	RecipientID string     `json:"profile_id_2"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

func newConnectionResponse(c models.ConnectionRequest) connectionResponse {
	return connectionResponse{
		ID:          c.ID,
		InitiatorID: c.InitiatorID,
		RecipientID: c.RecipientID,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		RespondedAt: c.RespondedAt,
	}
}

type pendingResponse struct {
	connectionResponse
	IsSender     bool             `json:"isSender"`
	OtherProfile *profileResponse `json:"otherProfile"`
}

type acceptedResponse struct {
	connectionResponse
	ConnectedProfile *profileResponse `json:"connectedProfile"`
}

type statusResponse struct {
	Exists  bool                `json:"exists"`
	Status  string              `json:"status,omitempty"`
	Request *connectionResponse `json:"request,omitempty"`
}

func newPendingResponses(items []connections.PendingRequest) []pendingResponse {
	out := make([]pendingResponse, 0, len(items))
	for _, item := range items {
		out = append(out, pendingResponse{
			connectionResponse: newConnectionResponse(item.ConnectionRequest),
			IsSender:           item.IsSender,
			OtherProfile:       optionalProfile(item.OtherProfile),
		})
	}
	return out
}

func newAcceptedResponses(items []connections.Connection) []acceptedResponse {
	out := make([]acceptedResponse, 0, len(items))
	for _, item := range items {
		out = append(out, acceptedResponse{
			connectionResponse: newConnectionResponse(item.ConnectionRequest),
			ConnectedProfile:   optionalProfile(item.ConnectedProfile),
		})
	}
	return out
}

func newStatusResponse(s connections.PairStatus) statusResponse {
	out := statusResponse{Exists: s.Exists, Status: s.Status}
	if s.Request != nil {
		req := newConnectionResponse(*s.Request)
		out.Request = &req
	}
	return out
}
