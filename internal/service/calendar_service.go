package service

import (
	"bms-service/internal/domain"
	"bms-service/internal/repository"
	"context"
	"fmt"
	"sort"
	"time"
)

const (
	taskEventDuration = time.Hour
	meetingColor      = "#3788d8"
	eventsPerDay      = 3
)

var taskColors = map[domain.TaskStatus]string{
	domain.TaskOpen:       "#28a745",
	domain.TaskInProgress: "#ffc107",
	domain.TaskCompleted:  "#6c757d",
}

type CalendarService struct {
	store repository.Store
	now   func() time.Time
}

func NewCalendarService(store repository.Store, opts ...Option) *CalendarService {
	o := applyOptions(opts)

	return &CalendarService{
		store: store,
		now:   o.now,
	}
}

// Events merges the caller's assigned tasks and meetings inside [start, end] into one
// list ordered by start time. Tasks come before meetings that start at the same instant.
func (s *CalendarService) Events(ctx context.Context, actor domain.Principal, start, end time.Time) ([]domain.Event, error) {
	if end.Before(start) {
		return nil, domain.InvalidInput("end must not be before start")
	}

	repos := s.store.Repos()

	tasks, err := repos.Tasks.TasksForCalendar(ctx, actor.UserID, start, end)
	if err != nil {
		return nil, err
	}

	meetings, err := repos.Meetings.MeetingsForCalendar(ctx, actor.UserID, start, end)
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(tasks)+len(meetings))
	for _, task := range tasks {
		events = append(events, taskEvent(task))
	}
	for _, meeting := range meetings {
		events = append(events, meetingEvent(meeting))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	return events, nil
}

// Month returns the Monday-first grid for the given month with the caller's events.
func (s *CalendarService) Month(ctx context.Context, actor domain.Principal, year int, month time.Month) ([]domain.CalendarWeek, error) {
	if month < time.January || month > time.December {
		return nil, domain.InvalidInput("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, domain.InvalidInput("year must be between 1 and 9999")
	}

	from, to := gridBounds(year, month)

	events, err := s.Events(ctx, actor, from, to.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		return nil, err
	}

	return MonthGrid(year, month, events, s.now()), nil
}

// MonthGrid lays events out over the weeks covering month, Monday first. Each day keeps
// the number of its events and the first three of them. Days are UTC calendar days.
func MonthGrid(year int, month time.Month, events []domain.Event, today time.Time) []domain.CalendarWeek {
	from, to := gridBounds(year, month)

	byDay := map[time.Time][]domain.Event{}
	for _, e := range events {
		day := truncateDay(e.Start)
		byDay[day] = append(byDay[day], e)
	}

	today = truncateDay(today)

	var weeks []domain.CalendarWeek
	for weekStart := from; !weekStart.After(to); weekStart = weekStart.AddDate(0, 0, 7) {
		week := make(domain.CalendarWeek, 0, 7)
		for i := range 7 {
			day := weekStart.AddDate(0, 0, i)
			dayEvents := byDay[day]

			shown := dayEvents
			if len(shown) > eventsPerDay {
				shown = shown[:eventsPerDay]
			}

			week = append(week, domain.CalendarDay{
				Date:           day,
				Day:            day.Day(),
				IsCurrentMonth: day.Month() == month,
				IsToday:        day.Equal(today),
				Events:         shown,
				EventsCount:    len(dayEvents),
			})
		}
		weeks = append(weeks, week)
	}

	return weeks
}

// gridBounds returns the Monday on or before the 1st and the Sunday on or after the last day.
func gridBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	from := first.AddDate(0, 0, -mondayOffset(first))
	to := last.AddDate(0, 0, 6-mondayOffset(last))

	return from, to
}

func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func taskEvent(task domain.Task) domain.Event {
	start := task.CreatedAt
	if task.Deadline != nil {
		start = *task.Deadline
	}

	return domain.Event{
		Kind:        domain.EventTask,
		ID:          fmt.Sprintf("task_%d", task.ID),
		Title:       task.Title,
		Description: task.Description,
		Start:       start,
		End:         start.Add(taskEventDuration),
		Color:       taskColors[task.Status],
		URL:         fmt.Sprintf("/tasks/%d", task.ID),
		AllDay:      task.Deadline != nil,
		Task: &domain.TaskEvent{
			TaskID: task.ID,
			Status: task.Status,
		},
	}
}

func meetingEvent(meeting domain.Meeting) domain.Event {
	return domain.Event{
		Kind:        domain.EventMeeting,
		ID:          fmt.Sprintf("meeting_%d", meeting.ID),
		Title:       meeting.Title,
		Description: meeting.Description,
		Start:       meeting.StartTime,
		End:         meeting.EndTime,
		Color:       meetingColor,
		URL:         fmt.Sprintf("/meetings/%d", meeting.ID),
		Meeting: &domain.MeetingEvent{
			MeetingID: meeting.ID,
		},
	}
}
