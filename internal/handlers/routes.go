package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/musihub/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided router.
func RegisterRoutes(router *mux.Router, deps Dependencies) {
	resolver := ProfileResolver{Users: deps.Users, Profiles: deps.Profiles}

	health := HealthHandler{DB: deps.DB}
	authH := AuthHandler{Users: deps.Users, Profiles: deps.Profiles, Sessions: deps.Sessions}
	profiles := ProfileHandler{Profiles: deps.Profiles, Resolver: resolver, Pictures: deps.Pictures}
	conns := ConnectionHandler{Connections: deps.Connections, Resolver: resolver}
	notifications := NotificationHandler{Events: deps.Notifications, Resolver: resolver}

	router.HandleFunc("/healthz", health.Handle).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	limited := func(scope string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(deps.AuthLimiter, scope, deps.Proxies)(h)
	}
	api.Handle("/auth/signup", limited("signup", authH.SignUp)).Methods(http.MethodPost)
	api.Handle("/auth/login", limited("login", authH.Login)).Methods(http.MethodPost)
	api.Handle("/auth/password-reset", limited("password-reset", authH.RequestPasswordReset)).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", authH.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authH.Logout).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Authenticate(deps.Tokens))

	protected.HandleFunc("/auth/me", authH.Me).Methods(http.MethodGet)

	protected.HandleFunc("/profiles", profiles.Search).Methods(http.MethodGet)
	protected.HandleFunc("/profiles/me", profiles.Me).Methods(http.MethodGet)
	protected.HandleFunc("/profiles/me", profiles.UpdateMe).Methods(http.MethodPut)
	protected.HandleFunc("/profiles/me/picture", profiles.UploadPicture).Methods(http.MethodPost)
	protected.HandleFunc("/profiles/{id}", profiles.Get).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}/profile", profiles.GetByUser).Methods(http.MethodGet)

	protected.HandleFunc("/connections", conns.Create).Methods(http.MethodPost)
	protected.HandleFunc("/connections", conns.Accepted).Methods(http.MethodGet)
	protected.HandleFunc("/connections/pending", conns.Pending).Methods(http.MethodGet)
	protected.HandleFunc("/connections/status/{profileId}", conns.Status).Methods(http.MethodGet)
	protected.HandleFunc("/connections/{id}/accept", conns.Accept).Methods(http.MethodPost)
	protected.HandleFunc("/connections/{id}/reject", conns.Reject).Methods(http.MethodPost)
	protected.HandleFunc("/connections/{id}", conns.Cancel).Methods(http.MethodDelete)

	protected.HandleFunc("/notifications/ws", notifications.Stream).Methods(http.MethodGet)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Profiles      ProfileStore
	Sessions      SessionManager
	Tokens        TokenVerifier
	Connections   ConnectionService
	Pictures      PictureStorage
	Notifications NotificationStream
	DB            Pinger
	AuthLimiter   middleware.RateLimiter
	Proxies       *middleware.TrustedProxies
}
