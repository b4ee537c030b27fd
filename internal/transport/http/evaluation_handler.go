package http

import (
	"bms-service/internal/domain"
	"bms-service/internal/service"
	"net/http"
	"time"
)

// createEvaluationRequest has no evaluator field; any evaluator_id in the body is dropped.
type createEvaluationRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	TaskID  int64  `json:"task_id"`
	UserID  int64  `json:"user_id"`
}

type updateEvaluationRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type evaluationResponse struct {
	ID            int64     `json:"id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	TaskID        int64     `json:"task_id"`
	UserID        int64     `json:"user_id"`
	EvaluatorID   int64     `json:"evaluator_id"`
	CreatedAt     time.Time `json:"created_at"`
	TaskTitle     string    `json:"task_title,omitempty"`
	UserName      string    `json:"user_name,omitempty"`
	EvaluatorName string    `json:"evaluator_name,omitempty"`
}

type evaluationStatsResponse struct {
	UserID           int64     `json:"user_id"`
	AverageRating    float64   `json:"average_rating"`
	TotalEvaluations int       `json:"total_evaluations"`
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
}

func newEvaluationResponse(e domain.Evaluation) evaluationResponse {
	return evaluationResponse{
		ID:          int64(e.ID),
		Rating:      e.Rating,
		Comment:     e.Comment,
		TaskID:      int64(e.TaskID),
		UserID:      int64(e.UserID),
		EvaluatorID: int64(e.EvaluatorID),
		CreatedAt:   e.CreatedAt,
	}
}

func newEvaluationDetailsResponse(d domain.EvaluationDetails) evaluationResponse {
	resp := newEvaluationResponse(d.Evaluation)
	resp.TaskTitle = d.TaskTitle
	resp.UserName = d.UserName
	resp.EvaluatorName = d.EvaluatorName

	return resp
}

func newEvaluationDetailsResponses(details []domain.EvaluationDetails) []evaluationResponse {
	resp := make([]evaluationResponse, len(details))
	for i, d := range details {
		resp[i] = newEvaluationDetailsResponse(d)
	}

	return resp
}

func (h *Handler) handleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	var req createEvaluationRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	evaluation, err := h.services.Evaluations.CreateEvaluation(r.Context(), principal(r), service.CreateEvaluationInput{
		Rating:  req.Rating,
		Comment: req.Comment,
		TaskID:  domain.TaskID(req.TaskID),
		UserID:  domain.UserID(req.UserID),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, newEvaluationResponse(evaluation))
}

func (h *Handler) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	var filter domain.EvaluationFilter

	taskID, err := queryID(r, "task_id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	userID, err := queryID(r, "user_id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	evaluatorID, err := queryID(r, "evaluator_id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	filter.TaskID = domain.TaskID(taskID)
	filter.UserID = domain.UserID(userID)
	filter.EvaluatorID = domain.UserID(evaluatorID)

	if filter.Offset, err = queryInt(r, "skip", 0); err != nil {
		h.respondError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		h.respondError(w, r, err)
		return
	}

	details, err := h.services.Evaluations.Evaluations(r.Context(), principal(r), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newEvaluationDetailsResponses(details))
}

func (h *Handler) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	details, err := h.services.Evaluations.Evaluation(r.Context(), principal(r), domain.EvaluationID(id))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newEvaluationDetailsResponse(details))
}

func (h *Handler) handleUpdateEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateEvaluationRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	evaluation, err := h.services.Evaluations.UpdateEvaluation(r.Context(), principal(r), domain.EvaluationID(id), service.UpdateEvaluationInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newEvaluationResponse(evaluation))
}

func (h *Handler) handleDeleteEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.services.Evaluations.DeleteEvaluation(r.Context(), principal(r), domain.EvaluationID(id)); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *Handler) handleUserEvaluations(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	details, err := h.services.Evaluations.UserEvaluations(r.Context(), principal(r), domain.UserID(userID), skip, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newEvaluationDetailsResponses(details))
}

func (h *Handler) handleEvaluationStats(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	periodDays, err := queryInt(r, "period_days", 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	stats, err := h.services.Evaluations.Stats(r.Context(), principal(r), domain.UserID(userID), periodDays)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, evaluationStatsResponse{
		UserID:           int64(stats.UserID),
		AverageRating:    stats.AverageRating,
		TotalEvaluations: stats.TotalEvaluations,
		PeriodStart:      stats.PeriodStart,
		PeriodEnd:        stats.PeriodEnd,
	})
}
