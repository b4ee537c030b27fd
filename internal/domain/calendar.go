package domain

import "time"

type EventKind string

const (
	EventTask    EventKind = "TASK"
	EventMeeting EventKind = "MEETING"
)

// Event is a calendar entry. Exactly one of Task or Meeting is set, matching Kind.
type Event struct {
	Kind        EventKind
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Color       string
	URL         string
	AllDay      bool

	Task    *TaskEvent
	Meeting *MeetingEvent
}

type TaskEvent struct {
	TaskID TaskID
	Status TaskStatus
}

type MeetingEvent struct {
	MeetingID MeetingID
}

type CalendarDay struct {
	Date           time.Time
	Day            int
	IsCurrentMonth bool
	IsToday        bool
	Events         []Event
	EventsCount    int
}

type CalendarWeek []CalendarDay
