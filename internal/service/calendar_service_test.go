package service_test

import (
	"bms-service/internal/domain"
	"bms-service/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessCalendarEvents(t *testing.T) {
	e := setup(t)

	deadline := at(14, 0)
	task := createTask(t, e, e.admin, service.CreateTaskInput{
		Title:      "Release",
		Deadline:   &deadline,
		AssigneeID: ptr(e.member.ID),
	})
	undated := createTask(t, e, e.admin, service.CreateTaskInput{
		Title:      "Backlog grooming",
		AssigneeID: ptr(e.member.ID),
	})
	meeting := createMeeting(t, e, e.admin, service.CreateMeetingInput{
		Title:          "Standup",
		StartTime:      at(10, 0),
		EndTime:        at(11, 0),
		ParticipantIDs: []domain.UserID{e.member.ID},
	})

	events, err := e.calendarService.Events(e.ctx, principal(e.member), at(0, 0), at(23, 59))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "task_2", events[0].ID)
	assert.Equal(t, undated.Title, events[0].Title)
	assert.True(t, now.Equal(events[0].Start))
	assert.False(t, events[0].AllDay)

	assert.Equal(t, domain.EventMeeting, events[1].Kind)
	assert.Equal(t, "#3788d8", events[1].Color)
	assert.Equal(t, "/meetings/1", events[1].URL)
	require.NotNil(t, events[1].Meeting)
	assert.Equal(t, meeting.ID, events[1].Meeting.MeetingID)

	assert.Equal(t, domain.EventTask, events[2].Kind)
	assert.Equal(t, "#28a745", events[2].Color)
	assert.True(t, events[2].AllDay)
	assert.True(t, deadline.Add(time.Hour).Equal(events[2].End))
	require.NotNil(t, events[2].Task)
	assert.Equal(t, task.ID, events[2].Task.TaskID)
}

func TestCalendarEventsTaskBeforeMeetingAtSameStart(t *testing.T) {
	e := setup(t)

	createMeeting(t, e, e.admin, service.CreateMeetingInput{
		Title:          "Retro",
		StartTime:      at(10, 0),
		EndTime:        at(11, 0),
		ParticipantIDs: []domain.UserID{e.member.ID},
	})
	deadline := at(10, 0)
	createTask(t, e, e.admin, service.CreateTaskInput{
		Title:      "Prepare retro notes",
		Deadline:   &deadline,
		AssigneeID: ptr(e.member.ID),
	})

	events, err := e.calendarService.Events(e.ctx, principal(e.member), at(0, 0), at(23, 59))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, domain.EventTask, events[0].Kind)
	assert.Equal(t, domain.EventMeeting, events[1].Kind)
	assert.True(t, events[0].Start.Equal(events[1].Start))
}

func TestCalendarEventsOnlyOwn(t *testing.T) {
	e := setup(t)

	createTask(t, e, e.admin, service.CreateTaskInput{Title: "Theirs", AssigneeID: ptr(e.teammate.ID)})
	createMeeting(t, e, e.admin, service.CreateMeetingInput{Title: "Private", StartTime: at(10, 0), EndTime: at(11, 0)})

	events, err := e.calendarService.Events(e.ctx, principal(e.member), at(0, 0), at(23, 59))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCalendarEventsFailReversedRange(t *testing.T) {
	e := setup(t)

	_, err := e.calendarService.Events(e.ctx, principal(e.member), at(12, 0), at(11, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSuccessCalendarMonth(t *testing.T) {
	e := setup(t)

	createMeeting(t, e, e.admin, service.CreateMeetingInput{Title: "Standup", StartTime: at(10, 0), EndTime: at(11, 0)})

	weeks, err := e.calendarService.Month(e.ctx, principal(e.admin), 2024, time.January)
	require.NoError(t, err)

	// January 2024 starts on a Monday and ends on a Wednesday.
	require.Len(t, weeks, 5)
	first := weeks[0][0]
	assert.Equal(t, 1, first.Day)
	assert.True(t, first.IsToday)
	assert.Equal(t, 1, first.EventsCount)

	_, err = e.calendarService.Month(e.ctx, principal(e.admin), 2024, 13)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMonthGrid(t *testing.T) {
	day := func(month time.Month, d, hour int) time.Time {
		return time.Date(2024, month, d, hour, 0, 0, 0, time.UTC)
	}

	var events []domain.Event
	for hour := 8; hour < 13; hour++ {
		events = append(events, domain.Event{Title: "busy", Start: day(time.February, 14, hour)})
	}
	events = append(events, domain.Event{Title: "spill", Start: day(time.March, 2, 9)})

	weeks := service.MonthGrid(2024, time.February, events, day(time.February, 14, 18))

	// February 2024: Thursday the 1st through Thursday the 29th.
	require.Len(t, weeks, 5)
	for _, week := range weeks {
		require.Len(t, week, 7)
		assert.Equal(t, time.Monday, week[0].Date.Weekday())
	}

	lead := weeks[0][0]
	assert.Equal(t, day(time.January, 29, 0), lead.Date)
	assert.False(t, lead.IsCurrentMonth)

	busy := weeks[2][2]
	assert.Equal(t, 14, busy.Day)
	assert.True(t, busy.IsCurrentMonth)
	assert.True(t, busy.IsToday)
	assert.Equal(t, 5, busy.EventsCount)
	assert.Len(t, busy.Events, 3)

	tail := weeks[4][6]
	assert.Equal(t, day(time.March, 3, 0), tail.Date)
	assert.False(t, tail.IsCurrentMonth)

	spill := weeks[4][5]
	assert.Equal(t, 1, spill.EventsCount)
}
