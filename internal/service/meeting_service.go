package service

import (
	"bms-service/internal/domain"
	"bms-service/internal/policy"
	"bms-service/internal/repository"
	"bms-service/internal/schedule"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"
)

type MeetingService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewMeetingService(store repository.Store, logger *slog.Logger, opts ...Option) *MeetingService {
	o := applyOptions(opts)

	return &MeetingService{
		store:  store,
		logger: logger,
		now:    o.now,
	}
}

type CreateMeetingInput struct {
	Title          string
	Description    string
	StartTime      time.Time
	EndTime        time.Time
	TeamID         domain.TeamID
	ParticipantIDs []domain.UserID
}

// UpdateMeetingInput carries only the fields to change. A nil ParticipantIDs keeps the
// current participants; an empty one leaves just the organizer.
type UpdateMeetingInput struct {
	Title          *string
	Description    *string
	StartTime      *time.Time
	EndTime        *time.Time
	ParticipantIDs []domain.UserID
}

func (s *MeetingService) CreateMeeting(ctx context.Context, actor domain.Principal, in CreateMeetingInput) (domain.Meeting, error) {
	var created domain.Meeting
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Teams.TeamByID(ctx, in.TeamID); err != nil {
			return err
		}

		roles := NewRoleStore(repos.Memberships)
		role, err := roles.RoleOf(ctx, actor.UserID, in.TeamID)
		if err != nil {
			return err
		}
		if err := policy.CanViewTeam(role); err != nil {
			return err
		}

		title := strings.TrimSpace(in.Title)
		if title == "" {
			return domain.InvalidInput("meeting title is required")
		}

		interval := schedule.Interval{Start: in.StartTime, End: in.EndTime}
		if err := interval.Validate(); err != nil {
			return err
		}

		participants := schedule.ParticipantSet(append(slices.Clone(in.ParticipantIDs), actor.UserID))
		if err := roles.RequireMembers(ctx, in.TeamID, participants...); err != nil {
			return err
		}

		if err := s.checkSchedule(ctx, repos, interval, participants, 0); err != nil {
			return err
		}

		created, err = repos.Meetings.Create(ctx, domain.Meeting{
			Title:        title,
			Description:  in.Description,
			StartTime:    in.StartTime,
			EndTime:      in.EndTime,
			OrganizerID:  actor.UserID,
			TeamID:       in.TeamID,
			Participants: participants,
		})

		return err
	})
	if err != nil {
		return domain.Meeting{}, err
	}

	s.logger.Info("meeting created", "meeting_id", created.ID, "team_id", created.TeamID, "participants", len(created.Participants))

	return created, nil
}

func (s *MeetingService) UpdateMeeting(ctx context.Context, actor domain.Principal, meetingID domain.MeetingID, in UpdateMeetingInput) (domain.Meeting, error) {
	var updated domain.Meeting
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		meeting, err := repos.Meetings.MeetingByID(ctx, meetingID)
		if err != nil {
			return err
		}

		roles := NewRoleStore(repos.Memberships)
		role, err := roles.RoleOf(ctx, actor.UserID, meeting.TeamID)
		if err != nil {
			return err
		}
		if err := policy.CanMutateMeeting(meeting.OrganizerID == actor.UserID, role, policy.ActionUpdate); err != nil {
			return err
		}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return domain.InvalidInput("meeting title is required")
			}
			meeting.Title = title
		}
		if in.Description != nil {
			meeting.Description = *in.Description
		}
		if in.StartTime != nil {
			meeting.StartTime = *in.StartTime
		}
		if in.EndTime != nil {
			meeting.EndTime = *in.EndTime
		}

		interval := schedule.MeetingInterval(meeting)
		if err := interval.Validate(); err != nil {
			return err
		}

		if in.ParticipantIDs != nil {
			meeting.Participants = schedule.ParticipantSet(append(slices.Clone(in.ParticipantIDs), meeting.OrganizerID))
			if err := roles.RequireMembers(ctx, meeting.TeamID, meeting.Participants...); err != nil {
				return err
			}
		}

		if in.StartTime != nil || in.EndTime != nil || in.ParticipantIDs != nil {
			if err := s.checkSchedule(ctx, repos, interval, meeting.Participants, meeting.ID); err != nil {
				return err
			}
		}

		updated, err = repos.Meetings.Update(ctx, meeting)

		return err
	})
	if err != nil {
		return domain.Meeting{}, err
	}

	s.logger.Info("meeting updated", "meeting_id", meetingID, "user_id", actor.UserID)

	return updated, nil
}

func (s *MeetingService) DeleteMeeting(ctx context.Context, actor domain.Principal, meetingID domain.MeetingID) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		meeting, err := repos.Meetings.MeetingByID(ctx, meetingID)
		if err != nil {
			return err
		}

		role, err := NewRoleStore(repos.Memberships).RoleOf(ctx, actor.UserID, meeting.TeamID)
		if err != nil {
			return err
		}
		if err := policy.CanMutateMeeting(meeting.OrganizerID == actor.UserID, role, policy.ActionDelete); err != nil {
			return err
		}

		return repos.Meetings.Delete(ctx, meetingID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("meeting deleted", "meeting_id", meetingID, "user_id", actor.UserID)

	return nil
}

func (s *MeetingService) Meeting(ctx context.Context, actor domain.Principal, meetingID domain.MeetingID) (domain.Meeting, error) {
	repos := s.store.Repos()

	meeting, err := repos.Meetings.MeetingByID(ctx, meetingID)
	if err != nil {
		return domain.Meeting{}, err
	}

	role, err := NewRoleStore(repos.Memberships).RoleOf(ctx, actor.UserID, meeting.TeamID)
	if err != nil {
		return domain.Meeting{}, err
	}
	if err := policy.CanViewMeeting(meeting.HasParticipant(actor.UserID), role); err != nil {
		return domain.Meeting{}, err
	}

	return meeting, nil
}

// Meetings lists the caller's meetings. An empty window means all of them.
func (s *MeetingService) Meetings(ctx context.Context, actor domain.Principal, window domain.MeetingWindow) ([]domain.Meeting, error) {
	switch window {
	case "":
		window = domain.WindowAll
	case domain.WindowAll, domain.WindowUpcoming, domain.WindowPast:
	default:
		return nil, domain.InvalidInput("filter must be one of: all, upcoming, past")
	}

	return s.store.Repos().Meetings.MeetingsForUser(ctx, actor.UserID, window, s.now())
}

func (s *MeetingService) UpcomingMeetings(ctx context.Context, actor domain.Principal) ([]domain.Meeting, error) {
	return s.Meetings(ctx, actor, domain.WindowUpcoming)
}

func (s *MeetingService) TeamMeetings(ctx context.Context, actor domain.Principal, teamID domain.TeamID) ([]domain.Meeting, error) {
	repos := s.store.Repos()

	if _, err := repos.Teams.TeamByID(ctx, teamID); err != nil {
		return nil, err
	}

	role, err := NewRoleStore(repos.Memberships).RoleOf(ctx, actor.UserID, teamID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanViewTeam(role); err != nil {
		return nil, err
	}

	return repos.Meetings.MeetingsByTeam(ctx, teamID)
}

// checkSchedule locks the participants' calendars for the rest of the transaction and
// then looks for overlaps, so concurrent bookings of the same people run one after another.
func (s *MeetingService) checkSchedule(ctx context.Context, repos repository.Repositories, interval schedule.Interval, participants []domain.UserID, exclude domain.MeetingID) error {
	if err := repos.Meetings.LockParticipants(ctx, participants); err != nil {
		return err
	}

	return schedule.NewDetector(repos.Meetings, repos.Users).Check(ctx, interval, participants, exclude)
}
