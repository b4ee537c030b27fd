package http

import (
	"bms-service/internal/domain"
	"net/http"
)

type userResponse struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsSuperuser bool   `json:"is_superuser"`
}

func newUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:          int64(user.ID),
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsSuperuser: user.IsSuperuser,
	}
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.services.Users.User(r.Context(), principal(r).UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newUserResponse(user))
}
