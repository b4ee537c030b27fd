package http

import (
	"bms-service/internal/domain"
	"net/http"
	"time"
)

type eventResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Color       string    `json:"color"`
	URL         string    `json:"url"`
	AllDay      bool      `json:"all_day"`
	TaskID      int64     `json:"task_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	MeetingID   int64     `json:"meeting_id,omitempty"`
}

type calendarDayResponse struct {
	Date           string          `json:"date"`
	Day            int             `json:"day"`
	IsCurrentMonth bool            `json:"is_current_month"`
	IsToday        bool            `json:"is_today"`
	Events         []eventResponse `json:"events"`
	EventsCount    int             `json:"events_count"`
}

type calendarMonthResponse struct {
	Year  int                     `json:"year"`
	Month int                     `json:"month"`
	Weeks [][]calendarDayResponse `json:"weeks"`
}

func newEventResponse(e domain.Event) eventResponse {
	resp := eventResponse{
		ID:          e.ID,
		Type:        string(e.Kind),
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		Color:       e.Color,
		URL:         e.URL,
		AllDay:      e.AllDay,
	}
	if e.Task != nil {
		resp.TaskID = int64(e.Task.TaskID)
		resp.Status = string(e.Task.Status)
	}
	if e.Meeting != nil {
		resp.MeetingID = int64(e.Meeting.MeetingID)
	}

	return resp
}

func newEventResponses(events []domain.Event) []eventResponse {
	resp := make([]eventResponse, len(events))
	for i, e := range events {
		resp[i] = newEventResponse(e)
	}

	return resp
}

func (h *Handler) handleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	start, err := queryTime(r, "start")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	end, err := queryTime(r, "end")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	events, err := h.services.Calendar.Events(r.Context(), principal(r), start, end)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, newEventResponses(events))
}

// handleCalendarMonth defaults year and month to the current UTC month.
func (h *Handler) handleCalendarMonth(w http.ResponseWriter, r *http.Request) {
	today := h.now().UTC()

	year, err := queryInt(r, "year", today.Year())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	month, err := queryInt(r, "month", int(today.Month()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	weeks, err := h.services.Calendar.Month(r.Context(), principal(r), year, time.Month(month))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := calendarMonthResponse{
		Year:  year,
		Month: month,
		Weeks: make([][]calendarDayResponse, len(weeks)),
	}
	for i, week := range weeks {
		days := make([]calendarDayResponse, len(week))
		for j, d := range week {
			days[j] = calendarDayResponse{
				Date:           d.Date.Format(time.DateOnly),
				Day:            d.Day,
				IsCurrentMonth: d.IsCurrentMonth,
				IsToday:        d.IsToday,
				Events:         newEventResponses(d.Events),
				EventsCount:    d.EventsCount,
			}
		}
		resp.Weeks[i] = days
	}

	h.respondJSON(w, r, http.StatusOK, resp)
}
