package http

import (
	"bms-service/internal/auth"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewSlogLogger(h.logger))
	r.Use(h.metrics.Instrument)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealthCheck)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Use(h.authenticate)
		r.Use(h.rateLimit)

		r.Get("/users/me", h.handleMe)

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", h.handleCreateTeam)
			r.Get("/", h.handleListTeams)
			r.Post("/join", h.handleJoinTeam)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetTeam)
				r.Put("/", h.handleUpdateTeam)
				r.Delete("/", h.handleDeleteTeam)
				r.Get("/members", h.handleListMembers)
				r.Delete("/members/{userID}", h.handleRemoveMember)
				r.Post("/invite", h.handleInvite)
				r.Get("/invite-code", h.handleInviteCode)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", h.handleCreateTask)
			r.Get("/", h.handleAssignedTasks)
			r.Get("/team", h.handleTeamTasks)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetTask)
				r.Put("/", h.handleUpdateTask)
				r.Delete("/", h.handleDeleteTask)
				r.Post("/comments", h.handleAddComment)
				r.Get("/comments", h.handleListComments)
			})
		})

		r.Route("/meetings", func(r chi.Router) {
			r.Post("/", h.handleCreateMeeting)
			r.Get("/", h.handleListMeetings)
			r.Get("/upcoming", h.handleUpcomingMeetings)
			r.Get("/team/{teamID}", h.handleTeamMeetings)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetMeeting)
				r.Put("/", h.handleUpdateMeeting)
				r.Delete("/", h.handleDeleteMeeting)
			})
		})

		r.Route("/evaluations", func(r chi.Router) {
			r.Post("/", h.handleCreateEvaluation)
			r.Get("/", h.handleListEvaluations)
			r.Get("/user/{userID}", h.handleUserEvaluations)
			r.Get("/user/{userID}/stats", h.handleEvaluationStats)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetEvaluation)
				r.Put("/", h.handleUpdateEvaluation)
				r.Delete("/", h.handleDeleteEvaluation)
			})
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Get("/events", h.handleCalendarEvents)
			r.Get("/month", h.handleCalendarMonth)
		})
	})

	return r
}

func (h *Handler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// authenticate accepts a bearer token or, failing that, the session cookie.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			cookie, cookieErr := r.Cookie(auth.CookieName)
			if cookieErr != nil || cookie.Value == "" {
				h.logger.WarnContext(r.Context(), "authorization missing", "error", err, "path", r.URL.Path)
				h.respondError(w, r, auth.ErrUnauthenticated)
				return
			}
			token = cookie.Value
		}

		p, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			h.logger.WarnContext(r.Context(), "token validation failed", "error", err, "path", r.URL.Path)
			h.respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}
