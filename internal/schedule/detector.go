package schedule

import (
	"bms-service/internal/domain"
	"context"
	"fmt"
	"slices"
	"strings"
)

const timeLayout = "02.01.2006 15:04"

type MeetingSource interface {
	MeetingsByParticipant(ctx context.Context, userID domain.UserID) ([]domain.Meeting, error)
}

type UserSource interface {
	UserByID(ctx context.Context, userID domain.UserID) (domain.User, error)
}

type Conflict struct {
	Participant domain.User
	Meetings    []domain.Meeting
}

func (c Conflict) String() string {
	parts := make([]string, len(c.Meetings))
	for i, m := range c.Meetings {
		parts[i] = fmt.Sprintf("%s (%s - %s)", m.Title, m.StartTime.Format(timeLayout), m.EndTime.Format(timeLayout))
	}

	return fmt.Sprintf("User %s has conflicting meetings: %s", c.Participant.DisplayName(), strings.Join(parts, ", "))
}

type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	msgs := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		msgs[i] = c.String()
	}

	return "time conflicts detected: " + strings.Join(msgs, "; ")
}

func (e *ConflictError) Unwrap() error {
	return domain.ErrConflict
}

type Detector struct {
	meetings MeetingSource
	users    UserSource
}

func NewDetector(meetings MeetingSource, users UserSource) *Detector {
	return &Detector{
		meetings: meetings,
		users:    users,
	}
}

// Detect returns, per participant, the existing meetings overlapping candidate.
// The meeting with id exclude (the one being edited) is never reported; zero excludes nothing.
func (d *Detector) Detect(ctx context.Context, candidate Interval, participants []domain.UserID, exclude domain.MeetingID) ([]Conflict, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	var conflicts []Conflict
	for _, userID := range ParticipantSet(participants) {
		meetings, err := d.meetings.MeetingsByParticipant(ctx, userID)
		if err != nil {
			return nil, err
		}

		var overlapping []domain.Meeting
		for _, m := range meetings {
			if exclude != 0 && m.ID == exclude {
				continue
			}
			if candidate.Overlaps(MeetingInterval(m)) {
				overlapping = append(overlapping, m)
			}
		}

		if len(overlapping) == 0 {
			continue
		}

		user, err := d.users.UserByID(ctx, userID)
		if err != nil {
			return nil, err
		}

		slices.SortFunc(overlapping, func(a, b domain.Meeting) int {
			return a.StartTime.Compare(b.StartTime)
		})
		conflicts = append(conflicts, Conflict{Participant: user, Meetings: overlapping})
	}

	return conflicts, nil
}

// Check is Detect folded into a single error: nil when nothing overlaps, *ConflictError otherwise.
func (d *Detector) Check(ctx context.Context, candidate Interval, participants []domain.UserID, exclude domain.MeetingID) error {
	conflicts, err := d.Detect(ctx, candidate, participants, exclude)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}

	return nil
}

// ParticipantSet de-duplicates ids and returns them in ascending order.
func ParticipantSet(ids []domain.UserID) []domain.UserID {
	set := slices.Clone(ids)
	slices.Sort(set)

	return slices.Compact(set)
}
