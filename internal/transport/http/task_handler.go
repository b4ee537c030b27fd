package http

import (
	"bms-service/internal/domain"
	"bms-service/internal/service"
	"net/http"
	"time"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline"`
	AssigneeID  *int64     `json:"assignee_id"`
	TeamID      int64      `json:"team_id"`
}

type updateTaskRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	Deadline      *time.Time `json:"deadline"`
	AssigneeID    *int64     `json:"assignee_id"`
	ClearDeadline bool       `json:"clear_deadline"`
	ClearAssignee bool       `json:"clear_assignee"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type taskResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline"`
	CreatorID   int64      `json:"creator_id"`
	AssigneeID  *int64     `json:"assignee_id"`
	TeamID      int64      `json:"team_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type taskPageResponse struct {
	Items      []taskResponse `json:"items"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalCount int            `json:"total_count"`
	TotalPages int            `json:"total_pages"`
}

type commentResponse struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func newTaskResponse(task domain.Task) taskResponse {
	resp := taskResponse{
		ID:          int64(task.ID),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Deadline:    task.Deadline,
		CreatorID:   int64(task.CreatorID),
		TeamID:      int64(task.TeamID),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.AssigneeID != nil {
		id := int64(*task.AssigneeID)
		resp.AssigneeID = &id
	}

	return resp
}

func newTaskResponses(tasks []domain.Task) []taskResponse {
	resp := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = newTaskResponse(t)
	}

	return resp
}

func newCommentResponse(c domain.TaskComment) commentResponse {
	return commentResponse{
		ID:        int64(c.ID),
		TaskID:    int64(c.TaskID),
		AuthorID:  int64(c.AuthorID),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func userIDPtr(id *int64) *domain.UserID {
	if id == nil {
		return nil
	}
	v := domain.UserID(*id)

	return &v
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	task, err := h.services.Tasks.CreateTask(r.Context(), principal(r), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Deadline:    req.Deadline,
		AssigneeID:  userIDPtr(req.AssigneeID),
		TeamID:      domain.TeamID(req.TeamID),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, newTaskResponse(task))
}

func (h *Handler) handleAssignedTasks(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	perPage, err := queryInt(r, "per_page", 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	result, err := h.services.Tasks.AssignedTasks(r.Context(), principal(r), service.ListTasksInput{
		Page:    page,
		PerPage: perPage,
		Status:  domain.TaskStatus(q.Get("filter")),
		Sort:    domain.TaskSort(q.Get("sort")),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, taskPageResponse{
		Items:      newTaskResponses(result.Items),
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalCount: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func (h *Handler) handleTeamTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.services.Tasks.TeamTasks(r.Context(), principal(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newTaskResponses(tasks))
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	task, err := h.services.Tasks.Task(r.Context(), principal(r), domain.TaskID(id))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newTaskResponse(task))
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateTaskRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	in := service.UpdateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Deadline:      req.Deadline,
		AssigneeID:    userIDPtr(req.AssigneeID),
		ClearDeadline: req.ClearDeadline,
		ClearAssignee: req.ClearAssignee,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		in.Status = &status
	}

	task, err := h.services.Tasks.UpdateTask(r.Context(), principal(r), domain.TaskID(id), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newTaskResponse(task))
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.services.Tasks.DeleteTask(r.Context(), principal(r), domain.TaskID(id)); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusNoContent, nil)
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req commentRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	comment, err := h.services.Tasks.AddComment(r.Context(), principal(r), domain.TaskID(id), req.Content)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, newCommentResponse(comment))
}

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	comments, err := h.services.Tasks.Comments(r.Context(), principal(r), domain.TaskID(id))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := make([]commentResponse, len(comments))
	for i, c := range comments {
		resp[i] = newCommentResponse(c)
	}

	h.respondJSON(w, r, http.StatusOK, resp)
}
