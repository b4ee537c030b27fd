package http

import (
	"bms-service/internal/domain"
	"bms-service/internal/service"
	"net/http"
	"time"
)

type createMeetingRequest struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	TeamID         int64     `json:"team_id"`
	ParticipantIDs []int64   `json:"participant_ids"`
}

// updateMeetingRequest leaves participants untouched when participant_ids is absent or null.
type updateMeetingRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	ParticipantIDs []int64    `json:"participant_ids"`
}

type meetingResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	OrganizerID    int64     `json:"organizer_id"`
	TeamID         int64     `json:"team_id"`
	ParticipantIDs []int64   `json:"participant_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newMeetingResponse(m domain.Meeting) meetingResponse {
	participants := make([]int64, len(m.Participants))
	for i, id := range m.Participants {
		participants[i] = int64(id)
	}

	return meetingResponse{
		ID:             int64(m.ID),
		Title:          m.Title,
		Description:    m.Description,
		StartTime:      m.StartTime,
		EndTime:        m.EndTime,
		OrganizerID:    int64(m.OrganizerID),
		TeamID:         int64(m.TeamID),
		ParticipantIDs: participants,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func newMeetingResponses(meetings []domain.Meeting) []meetingResponse {
	resp := make([]meetingResponse, len(meetings))
	for i, m := range meetings {
		resp[i] = newMeetingResponse(m)
	}

	return resp
}

func userIDs(ids []int64) []domain.UserID {
	if ids == nil {
		return nil
	}

	out := make([]domain.UserID, len(ids))
	for i, id := range ids {
		out[i] = domain.UserID(id)
	}

	return out
}

func (h *Handler) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req createMeetingRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	meeting, err := h.services.Meetings.CreateMeeting(r.Context(), principal(r), service.CreateMeetingInput{
		Title:          req.Title,
		Description:    req.Description,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		TeamID:         domain.TeamID(req.TeamID),
		ParticipantIDs: userIDs(req.ParticipantIDs),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, newMeetingResponse(meeting))
}

func (h *Handler) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	window := domain.MeetingWindow(r.URL.Query().Get("filter"))

	meetings, err := h.services.Meetings.Meetings(r.Context(), principal(r), window)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newMeetingResponses(meetings))
}

func (h *Handler) handleUpcomingMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.services.Meetings.UpcomingMeetings(r.Context(), principal(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newMeetingResponses(meetings))
}

func (h *Handler) handleTeamMeetings(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	meetings, err := h.services.Meetings.TeamMeetings(r.Context(), principal(r), domain.TeamID(teamID))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newMeetingResponses(meetings))
}

func (h *Handler) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	meeting, err := h.services.Meetings.Meeting(r.Context(), principal(r), domain.MeetingID(id))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newMeetingResponse(meeting))
}

func (h *Handler) handleUpdateMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateMeetingRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	meeting, err := h.services.Meetings.UpdateMeeting(r.Context(), principal(r), domain.MeetingID(id), service.UpdateMeetingInput{
		Title:          req.Title,
		Description:    req.Description,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ParticipantIDs: userIDs(req.ParticipantIDs),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newMeetingResponse(meeting))
}

func (h *Handler) handleDeleteMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.services.Meetings.DeleteMeeting(r.Context(), principal(r), domain.MeetingID(id)); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusNoContent, nil)
}
