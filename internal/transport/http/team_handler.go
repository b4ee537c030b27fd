package http

import (
	"bms-service/internal/domain"
	"bms-service/internal/service"
	"net/http"
	"time"
)

type teamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type joinRequest struct {
	InviteCode string `json:"invite_code"`
}

type teamResponse struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	InviteCode  string               `json:"invite_code,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Members     []teamMemberResponse `json:"members,omitempty"`
}

type teamMemberResponse struct {
	User     userResponse `json:"user"`
	Role     string       `json:"role"`
	JoinedAt time.Time    `json:"joined_at"`
}

type membershipResponse struct {
	UserID    int64     `json:"user_id"`
	TeamID    int64     `json:"team_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newTeamResponse(team domain.Team) teamResponse {
	return teamResponse{
		ID:          int64(team.ID),
		Name:        team.Name,
		Description: team.Description,
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}
}

func newTeamMembersResponse(members []domain.TeamMember) []teamMemberResponse {
	resp := make([]teamMemberResponse, len(members))
	for i, m := range members {
		resp[i] = teamMemberResponse{
			User:     newUserResponse(m.User),
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		}
	}

	return resp
}

func (h *Handler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	team, err := h.services.Teams.CreateTeam(r.Context(), principal(r), service.CreateTeamInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := newTeamResponse(team.Team)
	resp.InviteCode = team.InviteCode
	resp.Members = newTeamMembersResponse(team.Members)

	h.respondJSON(w, r, http.StatusCreated, resp)
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.services.Teams.Teams(r.Context(), principal(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := make([]teamResponse, len(teams))
	for i, t := range teams {
		resp[i] = newTeamResponse(t)
	}

	h.respondJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	team, err := h.services.Teams.Team(r.Context(), principal(r), domain.TeamID(id))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := newTeamResponse(team.Team)
	resp.Members = newTeamMembersResponse(team.Members)

	h.respondJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateTeamRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	team, err := h.services.Teams.UpdateTeam(r.Context(), principal(r), domain.TeamID(id), service.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newTeamResponse(team))
}

func (h *Handler) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.services.Teams.DeleteTeam(r.Context(), principal(r), domain.TeamID(id)); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	members, err := h.services.Teams.Members(r.Context(), principal(r), domain.TeamID(id))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newTeamMembersResponse(members))
}

func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req inviteRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	membership, err := h.services.Teams.Invite(r.Context(), principal(r), domain.TeamID(id), req.Email, domain.Role(req.Role))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, membershipResponse{
		UserID:    int64(membership.UserID),
		TeamID:    int64(membership.TeamID),
		Role:      string(membership.Role),
		CreatedAt: membership.CreatedAt,
	})
}

func (h *Handler) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	team, err := h.services.Teams.Join(r.Context(), principal(r), req.InviteCode)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newTeamResponse(team))
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.services.Teams.RemoveMember(r.Context(), principal(r), domain.TeamID(teamID), domain.UserID(userID)); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *Handler) handleInviteCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	code, err := h.services.Teams.InviteCode(r.Context(), principal(r), domain.TeamID(id))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]string{"invite_code": code})
}
