package domain

import "time"

type MeetingID int64

type Meeting struct {
	ID           MeetingID
	Title        string
	Description  string
	StartTime    time.Time
	EndTime      time.Time
	OrganizerID  UserID
	TeamID       TeamID
	Participants []UserID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (m Meeting) HasParticipant(userID UserID) bool {
	for _, id := range m.Participants {
		if id == userID {
			return true
		}
	}

	return false
}

type MeetingWindow string

const (
	WindowAll      MeetingWindow = "all"
	WindowUpcoming MeetingWindow = "upcoming"
	WindowPast     MeetingWindow = "past"
)
