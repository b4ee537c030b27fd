package inmemory

import (
	"bms-service/internal/domain"
	"bms-service/internal/schedule"
	"cmp"
	"context"
	"slices"
	"time"
)

type MeetingRepo struct {
	db conn
}

func NewMeetingRepo(db conn) *MeetingRepo {
	return &MeetingRepo{
		db: db,
	}
}

func (mr *MeetingRepo) Create(_ context.Context, meeting domain.Meeting) (domain.Meeting, error) {
	t, release := mr.db.acquire()
	defer release()

	if _, exists := t.teams[meeting.TeamID]; !exists {
		return domain.Meeting{}, domain.ErrTeamNotFound
	}

	t.seq.meeting++
	meeting.ID = domain.MeetingID(t.seq.meeting)
	meeting.Participants = schedule.ParticipantSet(meeting.Participants)
	meeting.CreatedAt = mr.db.now()
	meeting.UpdatedAt = meeting.CreatedAt
	t.meetings[meeting.ID] = meeting

	return copyMeeting(meeting), nil
}

func (mr *MeetingRepo) MeetingByID(_ context.Context, meetingID domain.MeetingID) (domain.Meeting, error) {
	t, release := mr.db.acquire()
	defer release()

	meeting, exists := t.meetings[meetingID]
	if !exists {
		return domain.Meeting{}, domain.ErrMeetingNotFound
	}

	return copyMeeting(meeting), nil
}

func (mr *MeetingRepo) Update(_ context.Context, meeting domain.Meeting) (domain.Meeting, error) {
	t, release := mr.db.acquire()
	defer release()

	existing, exists := t.meetings[meeting.ID]
	if !exists {
		return domain.Meeting{}, domain.ErrMeetingNotFound
	}

	meeting.OrganizerID = existing.OrganizerID
	meeting.TeamID = existing.TeamID
	meeting.Participants = schedule.ParticipantSet(meeting.Participants)
	meeting.CreatedAt = existing.CreatedAt
	meeting.UpdatedAt = mr.db.now()
	t.meetings[meeting.ID] = meeting

	return copyMeeting(meeting), nil
}

func (mr *MeetingRepo) Delete(_ context.Context, meetingID domain.MeetingID) error {
	t, release := mr.db.acquire()
	defer release()

	if _, exists := t.meetings[meetingID]; !exists {
		return domain.ErrMeetingNotFound
	}

	delete(t.meetings, meetingID)

	return nil
}

func (mr *MeetingRepo) MeetingsByParticipant(_ context.Context, userID domain.UserID) ([]domain.Meeting, error) {
	return mr.filter(func(m domain.Meeting) bool {
		return m.HasParticipant(userID)
	}), nil
}

func (mr *MeetingRepo) MeetingsForUser(_ context.Context, userID domain.UserID, window domain.MeetingWindow, now time.Time) ([]domain.Meeting, error) {
	return mr.filter(func(m domain.Meeting) bool {
		if !m.HasParticipant(userID) {
			return false
		}

		switch window {
		case domain.WindowUpcoming:
			return !m.StartTime.Before(now)
		case domain.WindowPast:
			return m.EndTime.Before(now)
		}

		return true
	}), nil
}

func (mr *MeetingRepo) MeetingsByTeam(_ context.Context, teamID domain.TeamID) ([]domain.Meeting, error) {
	return mr.filter(func(m domain.Meeting) bool {
		return m.TeamID == teamID
	}), nil
}

func (mr *MeetingRepo) MeetingsForCalendar(_ context.Context, userID domain.UserID, from, to time.Time) ([]domain.Meeting, error) {
	return mr.filter(func(m domain.Meeting) bool {
		return m.HasParticipant(userID) && !m.StartTime.After(to) && !m.EndTime.Before(from)
	}), nil
}

// LockParticipants is a no-op: WithinTx already runs transactions one at a time.
func (mr *MeetingRepo) LockParticipants(_ context.Context, _ []domain.UserID) error {
	return nil
}

func (mr *MeetingRepo) filter(keep func(domain.Meeting) bool) []domain.Meeting {
	t, release := mr.db.acquire()
	defer release()

	meetings := []domain.Meeting{}
	for _, m := range t.meetings {
		if keep(m) {
			meetings = append(meetings, copyMeeting(m))
		}
	}

	slices.SortFunc(meetings, func(a, b domain.Meeting) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return meetings
}
