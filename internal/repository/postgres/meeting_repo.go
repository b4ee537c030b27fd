package postgres

import (
	"bms-service/internal/domain"
	"bms-service/internal/schedule"
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type MeetingRepo struct {
	db querier
}

func NewMeetingRepo(db querier) *MeetingRepo {
	return &MeetingRepo{
		db: db,
	}
}

const meetingSelect = `
	SELECT
		m.id,
		m.title,
		m.description,
		m.start_time,
		m.end_time,
		m.organizer_id,
		m.team_id,
		m.created_at,
		m.updated_at,
		COALESCE(ARRAY_AGG(mp.user_id ORDER BY mp.user_id) FILTER (WHERE mp.user_id IS NOT NULL), '{}') AS participants
	FROM meetings m
	LEFT JOIN meeting_participants mp ON mp.meeting_id = m.id
`

const attendedBy = `EXISTS (SELECT 1 FROM meeting_participants p WHERE p.meeting_id = m.id AND p.user_id = $1)`

func (mr *MeetingRepo) Create(ctx context.Context, meeting domain.Meeting) (domain.Meeting, error) {
	tx, err := mr.db.Begin(ctx)
	if err != nil {
		return domain.Meeting{}, err
	}
	defer tx.Rollback(ctx)

	createMeetingQuery := `
		INSERT INTO meetings (title, description, start_time, end_time, organizer_id, team_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err = tx.QueryRow(ctx, createMeetingQuery,
		meeting.Title, meeting.Description, meeting.StartTime, meeting.EndTime, meeting.OrganizerID, meeting.TeamID,
	).Scan(&meeting.ID)
	if err != nil {
		if constraint, ok := missingReference(err); ok {
			if constraint == "meetings_team_id_fkey" {
				return domain.Meeting{}, domain.ErrTeamNotFound
			}
			return domain.Meeting{}, domain.ErrUserNotFound
		}
		return domain.Meeting{}, err
	}

	if err := insertParticipants(ctx, tx, meeting.ID, meeting.Participants); err != nil {
		return domain.Meeting{}, err
	}

	created, err := meetingByID(ctx, tx, meeting.ID)
	if err != nil {
		return domain.Meeting{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Meeting{}, err
	}

	return created, nil
}

func (mr *MeetingRepo) MeetingByID(ctx context.Context, meetingID domain.MeetingID) (domain.Meeting, error) {
	return meetingByID(ctx, mr.db, meetingID)
}

func (mr *MeetingRepo) Update(ctx context.Context, meeting domain.Meeting) (domain.Meeting, error) {
	tx, err := mr.db.Begin(ctx)
	if err != nil {
		return domain.Meeting{}, err
	}
	defer tx.Rollback(ctx)

	updateMeetingQuery := `
		UPDATE meetings
		SET
			title = $2,
			description = $3,
			start_time = $4,
			end_time = $5,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, updateMeetingQuery,
		meeting.ID, meeting.Title, meeting.Description, meeting.StartTime, meeting.EndTime,
	)
	if err != nil {
		return domain.Meeting{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Meeting{}, domain.ErrMeetingNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM meeting_participants WHERE meeting_id = $1`, meeting.ID); err != nil {
		return domain.Meeting{}, err
	}

	if err := insertParticipants(ctx, tx, meeting.ID, meeting.Participants); err != nil {
		return domain.Meeting{}, err
	}

	updated, err := meetingByID(ctx, tx, meeting.ID)
	if err != nil {
		return domain.Meeting{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Meeting{}, err
	}

	return updated, nil
}

func (mr *MeetingRepo) Delete(ctx context.Context, meetingID domain.MeetingID) error {
	tag, err := mr.db.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, meetingID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrMeetingNotFound
	}

	return nil
}

func (mr *MeetingRepo) MeetingsByParticipant(ctx context.Context, userID domain.UserID) ([]domain.Meeting, error) {
	query := meetingSelect + `
		WHERE ` + attendedBy + `
		GROUP BY m.id
		ORDER BY m.start_time, m.id
	`

	return mr.queryMeetings(ctx, query, userID)
}

func (mr *MeetingRepo) MeetingsForUser(ctx context.Context, userID domain.UserID, window domain.MeetingWindow, now time.Time) ([]domain.Meeting, error) {
	where := attendedBy
	args := []any{userID}

	switch window {
	case domain.WindowUpcoming:
		where += ` AND m.start_time >= $2`
		args = append(args, now)
	case domain.WindowPast:
		where += ` AND m.end_time < $2`
		args = append(args, now)
	}

	query := meetingSelect + `
		WHERE ` + where + `
		GROUP BY m.id
		ORDER BY m.start_time, m.id
	`

	return mr.queryMeetings(ctx, query, args...)
}

func (mr *MeetingRepo) MeetingsByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Meeting, error) {
	query := meetingSelect + `
		WHERE m.team_id = $1
		GROUP BY m.id
		ORDER BY m.start_time, m.id
	`

	return mr.queryMeetings(ctx, query, teamID)
}

func (mr *MeetingRepo) MeetingsForCalendar(ctx context.Context, userID domain.UserID, from, to time.Time) ([]domain.Meeting, error) {
	query := meetingSelect + `
		WHERE ` + attendedBy + ` AND m.start_time <= $3 AND m.end_time >= $2
		GROUP BY m.id
		ORDER BY m.start_time, m.id
	`

	return mr.queryMeetings(ctx, query, userID, from, to)
}

// LockParticipants takes a transaction-scoped advisory lock per user in ascending id order,
// so two schedulers touching the same people queue up instead of deadlocking. Outside a
// transaction the locks are released as soon as each statement ends.
func (mr *MeetingRepo) LockParticipants(ctx context.Context, userIDs []domain.UserID) error {
	lockQuery := `SELECT pg_advisory_xact_lock(hashtextextended('meeting_participant:' || $1::text, 0))`

	for _, id := range schedule.ParticipantSet(userIDs) {
		if _, err := mr.db.Exec(ctx, lockQuery, int64(id)); err != nil {
			return err
		}
	}

	return nil
}

func (mr *MeetingRepo) queryMeetings(ctx context.Context, query string, args ...any) ([]domain.Meeting, error) {
	rows, err := mr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meetings := []domain.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return meetings, nil
}

func insertParticipants(ctx context.Context, db querier, meetingID domain.MeetingID, participants []domain.UserID) error {
	ids := schedule.ParticipantSet(participants)
	if len(ids) == 0 {
		return nil
	}

	insertParticipantQuery := `
		INSERT INTO meeting_participants (meeting_id, user_id)
		VALUES ($1, $2)
	`

	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(insertParticipantQuery, meetingID, id)
	}

	batchRes := db.SendBatch(ctx, batch)
	if err := batchRes.Close(); err != nil {
		if _, ok := missingReference(err); ok {
			return domain.ErrUserNotFound
		}
		return err
	}

	return nil
}

func meetingByID(ctx context.Context, db querier, meetingID domain.MeetingID) (domain.Meeting, error) {
	query := meetingSelect + `
		WHERE m.id = $1
		GROUP BY m.id
	`

	return scanMeeting(db.QueryRow(ctx, query, meetingID))
}

func scanMeeting(row scanner) (domain.Meeting, error) {
	var (
		m            domain.Meeting
		participants []int64
	)

	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.StartTime,
		&m.EndTime,
		&m.OrganizerID,
		&m.TeamID,
		&m.CreatedAt,
		&m.UpdatedAt,
		&participants,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Meeting{}, domain.ErrMeetingNotFound
		}
		return domain.Meeting{}, err
	}

	m.Participants = make([]domain.UserID, len(participants))
	for i, id := range participants {
		m.Participants[i] = domain.UserID(id)
	}

	return m, nil
}
