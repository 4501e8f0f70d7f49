package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/musihub/backend/internal/models"
)

// pngHeader is enough of a PNG file for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newProfileFixture() (ProfileHandler, *inMemoryUserStore, *inMemoryProfileStore) {
	users := newInMemoryUserStore()
	profiles := newInMemoryProfileStore()
	profiles.fixture(users, "u-1", "p-1", "Nina")
	profiles.fixture(users, "u-2", "p-2", "Ninette")
	profiles.fixture(users, "u-3", "p-3", "Oscar")

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	handler := ProfileHandler{
		Profiles: profiles,
		Resolver: ProfileResolver{Users: users, Profiles: profiles, NowFunc: func() time.Time { return fixed }},
		NowFunc:  func() time.Time { return fixed },
	}
	return handler, users, profiles
}

func TestProfileHandlerSearch(t *testing.T) {
	handler, _, _ := newProfileFixture()

	rec := httptest.NewRecorder()
	handler.Search(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/profiles?name=nin", nil), "u-3"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	var body struct {
		Profiles []profileResponse `json:"profiles"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Profiles) != 2 || body.Profiles[0].Name != "Nina" || body.Profiles[1].Name != "Ninette" {
		t.Fatalf("unexpected search result %+v", body.Profiles)
	}
}

func TestProfileHandlerGet(t *testing.T) {
	handler, _, _ := newProfileFixture()

	rec := httptest.NewRecorder()
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/profiles/p-2", nil), map[string]string{"id": "p-2"})
	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/profiles/nope", nil), map[string]string{"id": "nope"})
	handler.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/users/u-3/profile", nil), map[string]string{"id": "u-3"})
	handler.GetByUser(rec, req)
	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "p-3" {
		t.Fatalf("expected p-3 got %s", resp.ID)
	}
}

func TestProfileHandlerMeRecreatesDefaultProfile(t *testing.T) {
	handler, users, profiles := newProfileFixture()
	users.users["u-9"] = models.User{ID: "u-9", Name: "Lonely", Email: "lonely@example.com"}

	rec := httptest.NewRecorder()
	handler.Me(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/profiles/me", nil), "u-9"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserID != "u-9" || resp.Bio != models.DefaultProfileBio {
		t.Fatalf("expected default profile got %+v", resp)
	}
	if _, ok := profiles.profiles[resp.ID]; !ok {
		t.Fatal("expected recreated profile to be stored")
	}
}

func TestProfileHandlerUpdateMe(t *testing.T) {
	handler, _, profiles := newProfileFixture()

	body := `{"bio":"  Jazz pianist  ","location":"Lisbon"}`
	rec := httptest.NewRecorder()
	handler.UpdateMe(rec, asUser(httptest.NewRequest(http.MethodPut, "/api/v1/profiles/me", strings.NewReader(body)), "u-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	stored := profiles.profiles["p-1"]
	if stored.Bio != "Jazz pianist" || stored.Location != "Lisbon" || stored.Name != "Nina" {
		t.Fatalf("unexpected stored profile %+v", stored)
	}
	if stored.UpdatedAt.IsZero() {
		t.Fatal("expected updatedAt to be set")
	}

	rec = httptest.NewRecorder()
	handler.UpdateMe(rec, asUser(httptest.NewRequest(http.MethodPut, "/api/v1/profiles/me", strings.NewReader(`{"name":"   "}`)), "u-1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for blank name got %d", rec.Code)
	}
}

func multipartPicture(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "avatar.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profiles/me/picture", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProfileHandlerUploadPicture(t *testing.T) {
	handler, _, profiles := newProfileFixture()
	pictures := &stubPictures{}
	handler.Pictures = pictures

	rec := httptest.NewRecorder()
	handler.UploadPicture(rec, asUser(multipartPicture(t, "picture", pngHeader), "u-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if pictures.contentType != "image/png" {
		t.Fatalf("expected image/png got %s", pictures.contentType)
	}
	if !bytes.Equal(pictures.data, pngHeader) {
		t.Fatal("expected the full upload to reach storage")
	}
	if got := profiles.profiles["p-1"].PictureURL; got != "https://cdn.example.com/profile-pictures/p-1/pic.png" {
		t.Fatalf("unexpected picture url %s", got)
	}
}

func TestProfileHandlerUploadPictureErrors(t *testing.T) {
	t.Run("storage disabled", func(t *testing.T) {
		handler, _, _ := newProfileFixture()
		rec := httptest.NewRecorder()
		handler.UploadPicture(rec, asUser(multipartPicture(t, "picture", pngHeader), "u-1"))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503 got %d", rec.Code)
		}
	})

	t.Run("not an image", func(t *testing.T) {
		handler, _, _ := newProfileFixture()
		handler.Pictures = &stubPictures{}
		rec := httptest.NewRecorder()
		handler.UploadPicture(rec, asUser(multipartPicture(t, "picture", []byte("plain text")), "u-1"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 got %d", rec.Code)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		handler, _, _ := newProfileFixture()
		handler.Pictures = &stubPictures{}
		rec := httptest.NewRecorder()
		handler.UploadPicture(rec, asUser(multipartPicture(t, "avatar", pngHeader), "u-1"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 got %d", rec.Code)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		handler, _, _ := newProfileFixture()
		handler.Pictures = &stubPictures{err: errBoom}
		rec := httptest.NewRecorder()
		handler.UploadPicture(rec, asUser(multipartPicture(t, "picture", pngHeader), "u-1"))
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected status 502 got %d", rec.Code)
		}
	})
}
