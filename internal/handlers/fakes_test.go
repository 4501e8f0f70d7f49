package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/musihub/backend/internal/auth"
	"github.com/musihub/backend/internal/connections"
	"github.com/musihub/backend/internal/models"
	"github.com/musihub/backend/internal/repositories"
)

type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

type inMemoryProfileStore struct {
	mu        sync.Mutex
	profiles  map[string]models.Profile
	createErr error
}

func newInMemoryProfileStore() *inMemoryProfileStore {
	return &inMemoryProfileStore{profiles: make(map[string]models.Profile)}
}

func (s *inMemoryProfileStore) Create(_ context.Context, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.profiles {
		if existing.UserID == profile.UserID {
			return repositories.ErrConflict
		}
	}
	s.profiles[profile.ID] = profile
	return nil
}

func (s *inMemoryProfileStore) FindByID(_ context.Context, id string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, repositories.ErrNotFound
	}
	return profile, nil
}

func (s *inMemoryProfileStore) FindByUserID(_ context.Context, userID string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, profile := range s.profiles {
		if profile.UserID == userID {
			return profile, nil
		}
	}
	return models.Profile{}, repositories.ErrNotFound
}

func (s *inMemoryProfileStore) SearchByName(_ context.Context, name string, limit int) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Profile
	for _, profile := range s.profiles {
		if strings.Contains(strings.ToLower(profile.Name), strings.ToLower(name)) {
			out = append(out, profile)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *inMemoryProfileStore) Update(_ context.Context, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.profiles[profile.ID] = profile
	return nil
}

// fixture seeds a user with its profile and returns both.
func (s *inMemoryProfileStore) fixture(users *inMemoryUserStore, userID, profileID, name string) (models.User, models.Profile) {
	user := models.User{ID: userID, Name: name, Email: strings.ToLower(name) + "@example.com"}
	users.users[userID] = user
	profile := models.Profile{ID: profileID, UserID: userID, Name: name, Email: user.Email}
	s.profiles[profileID] = profile
	return user, profile
}

type stubConnectionService struct {
	requests map[string]models.ConnectionRequest

	requestErr error
	transErr   error
	pending    []connections.PendingRequest
	accepted   []connections.Connection
	status     connections.PairStatus

	calls []string
}

func newStubConnectionService(requests ...models.ConnectionRequest) *stubConnectionService {
	s := &stubConnectionService{requests: make(map[string]models.ConnectionRequest)}
	for _, r := range requests {
		s.requests[r.ID] = r
	}
	return s
}

func (s *stubConnectionService) Request(_ context.Context, initiatorID, recipientID string) (models.ConnectionRequest, error) {
	s.calls = append(s.calls, "request")
	if s.requestErr != nil {
		return models.ConnectionRequest{}, s.requestErr
	}
	req := models.ConnectionRequest{ID: "req-new", InitiatorID: initiatorID, RecipientID: recipientID, Status: models.ConnectionStatusPending}
	s.requests[req.ID] = req
	return req, nil
}

func (s *stubConnectionService) Get(_ context.Context, requestID string) (models.ConnectionRequest, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return models.ConnectionRequest{}, connections.ErrRequestNotFound
	}
	return req, nil
}

func (s *stubConnectionService) Pending(context.Context, string) ([]connections.PendingRequest, error) {
	return s.pending, nil
}

func (s *stubConnectionService) Accepted(context.Context, string) ([]connections.Connection, error) {
	return s.accepted, nil
}

func (s *stubConnectionService) Accept(_ context.Context, requestID string) (models.ConnectionRequest, error) {
	return s.transition(requestID, "accept", models.ConnectionStatusAccepted)
}

func (s *stubConnectionService) Reject(_ context.Context, requestID string) (models.ConnectionRequest, error) {
	return s.transition(requestID, "reject", models.ConnectionStatusRejected)
}

func (s *stubConnectionService) transition(requestID, call, status string) (models.ConnectionRequest, error) {
	s.calls = append(s.calls, call)
	if s.transErr != nil {
		return models.ConnectionRequest{}, s.transErr
	}
	req := s.requests[requestID]
	req.Status = status
	s.requests[requestID] = req
	return req, nil
}

func (s *stubConnectionService) Cancel(_ context.Context, requestID string) error {
	s.calls = append(s.calls, "cancel")
	if s.transErr != nil {
		return s.transErr
	}
	delete(s.requests, requestID)
	return nil
}

func (s *stubConnectionService) Status(context.Context, string, string) (connections.PairStatus, error) {
	return s.status, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubPictures struct {
	err         error
	contentType string
	data        []byte
}

func (p *stubPictures) SavePicture(_ context.Context, profileID, _ string, contentType string, r io.Reader) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	p.contentType = contentType
	p.data = data
	return "https://cdn.example.com/profile-pictures/" + profileID + "/pic.png", nil
}

var errBoom = errors.New("boom")

// asUser attaches an authenticated user id the way the authentication middleware does.
func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}
