package service

import (
	"bms-service/internal/domain"
	"bms-service/internal/policy"
	"bms-service/internal/repository"
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	defaultEvaluationLimit = 100
	maxEvaluationLimit     = 1000
	defaultStatsPeriodDays = 30
	maxStatsPeriodDays     = 365
)

type EvaluationService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewEvaluationService(store repository.Store, logger *slog.Logger, opts ...Option) *EvaluationService {
	o := applyOptions(opts)

	return &EvaluationService{
		store:  store,
		logger: logger,
		now:    o.now,
	}
}

// CreateEvaluationInput has no evaluator: it is always the acting principal.
type CreateEvaluationInput struct {
	Rating  int
	Comment string
	TaskID  domain.TaskID
	UserID  domain.UserID
}

type UpdateEvaluationInput struct {
	Rating  *int
	Comment *string
}

func (s *EvaluationService) CreateEvaluation(ctx context.Context, actor domain.Principal, in CreateEvaluationInput) (domain.Evaluation, error) {
	var created domain.Evaluation
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		task, err := repos.Tasks.TaskByID(ctx, in.TaskID)
		if err != nil {
			return err
		}

		roles := NewRoleStore(repos.Memberships)
		role, err := roles.RoleOf(ctx, actor.UserID, task.TeamID)
		if err != nil {
			return err
		}
		if err := policy.CanCreateEvaluation(role); err != nil {
			return err
		}

		if err := validateRating(in.Rating); err != nil {
			return err
		}

		if _, err := repos.Users.UserByID(ctx, in.UserID); err != nil {
			return err
		}
		if err := roles.RequireMembers(ctx, task.TeamID, in.UserID); err != nil {
			return err
		}

		created, err = repos.Evaluations.Create(ctx, domain.Evaluation{
			Rating:      in.Rating,
			Comment:     in.Comment,
			TaskID:      task.ID,
			UserID:      in.UserID,
			EvaluatorID: actor.UserID,
		})

		return err
	})
	if err != nil {
		return domain.Evaluation{}, err
	}

	s.logger.Info("evaluation created", "evaluation_id", created.ID, "task_id", created.TaskID, "evaluator_id", created.EvaluatorID)

	return created, nil
}

func (s *EvaluationService) UpdateEvaluation(ctx context.Context, actor domain.Principal, evaluationID domain.EvaluationID, in UpdateEvaluationInput) (domain.Evaluation, error) {
	var updated domain.Evaluation
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		evaluation, err := repos.Evaluations.EvaluationByID(ctx, evaluationID)
		if err != nil {
			return err
		}

		if err := policy.CanMutateEvaluation(evaluation.EvaluatorID == actor.UserID, actor.IsSuperuser, policy.ActionUpdate); err != nil {
			return err
		}

		if in.Rating != nil {
			if err := validateRating(*in.Rating); err != nil {
				return err
			}
			evaluation.Rating = *in.Rating
		}
		if in.Comment != nil {
			evaluation.Comment = *in.Comment
		}

		updated, err = repos.Evaluations.Update(ctx, evaluation)

		return err
	})
	if err != nil {
		return domain.Evaluation{}, err
	}

	s.logger.Info("evaluation updated", "evaluation_id", evaluationID, "user_id", actor.UserID)

	return updated, nil
}

func (s *EvaluationService) DeleteEvaluation(ctx context.Context, actor domain.Principal, evaluationID domain.EvaluationID) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		evaluation, err := repos.Evaluations.EvaluationByID(ctx, evaluationID)
		if err != nil {
			return err
		}

		if err := policy.CanMutateEvaluation(evaluation.EvaluatorID == actor.UserID, actor.IsSuperuser, policy.ActionDelete); err != nil {
			return err
		}

		return repos.Evaluations.Delete(ctx, evaluationID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("evaluation deleted", "evaluation_id", evaluationID, "user_id", actor.UserID)

	return nil
}

func (s *EvaluationService) Evaluation(ctx context.Context, actor domain.Principal, evaluationID domain.EvaluationID) (domain.EvaluationDetails, error) {
	repos := s.store.Repos()

	evaluation, err := repos.Evaluations.EvaluationByID(ctx, evaluationID)
	if err != nil {
		return domain.EvaluationDetails{}, err
	}

	task, err := repos.Tasks.TaskByID(ctx, evaluation.TaskID)
	if err != nil {
		return domain.EvaluationDetails{}, err
	}

	role, err := NewRoleStore(repos.Memberships).RoleOf(ctx, actor.UserID, task.TeamID)
	if err != nil {
		return domain.EvaluationDetails{}, err
	}

	isParty := evaluation.UserID == actor.UserID || evaluation.EvaluatorID == actor.UserID
	if err := policy.CanViewEvaluation(isParty, actor.IsSuperuser, role); err != nil {
		return domain.EvaluationDetails{}, err
	}

	details, err := newDetailer(repos).details(ctx, []domain.Evaluation{evaluation})
	if err != nil {
		return domain.EvaluationDetails{}, err
	}

	return details[0], nil
}

// Evaluations lists evaluations matching filter. Apart from superusers, callers only see
// evaluations they received or gave: without a user filter on themselves the list is
// narrowed to their own evaluator id.
func (s *EvaluationService) Evaluations(ctx context.Context, actor domain.Principal, filter domain.EvaluationFilter) ([]domain.EvaluationDetails, error) {
	if !actor.IsSuperuser && filter.UserID != actor.UserID {
		if filter.EvaluatorID != 0 && filter.EvaluatorID != actor.UserID {
			return nil, domain.Forbidden("you can only view evaluations you received or gave")
		}
		filter.EvaluatorID = actor.UserID
	}

	return s.list(ctx, filter)
}

func (s *EvaluationService) UserEvaluations(ctx context.Context, actor domain.Principal, userID domain.UserID, offset, limit int) ([]domain.EvaluationDetails, error) {
	if err := policy.CanViewUserEvaluations(userID == actor.UserID, actor.IsSuperuser); err != nil {
		return nil, err
	}

	return s.list(ctx, domain.EvaluationFilter{UserID: userID, Offset: offset, Limit: limit})
}

// Stats averages the ratings userID received over the last periodDays days; zero means 30.
func (s *EvaluationService) Stats(ctx context.Context, actor domain.Principal, userID domain.UserID, periodDays int) (domain.EvaluationStats, error) {
	if err := policy.CanViewUserEvaluations(userID == actor.UserID, actor.IsSuperuser); err != nil {
		return domain.EvaluationStats{}, err
	}

	if periodDays == 0 {
		periodDays = defaultStatsPeriodDays
	}
	if periodDays < 1 || periodDays > maxStatsPeriodDays {
		return domain.EvaluationStats{}, domain.InvalidInput("period_days must be between 1 and 365")
	}

	end := s.now()
	start := end.AddDate(0, 0, -periodDays)

	average, count, err := s.store.Repos().Evaluations.Stats(ctx, userID, start, end)
	if err != nil {
		return domain.EvaluationStats{}, err
	}

	return domain.EvaluationStats{
		UserID:           userID,
		AverageRating:    average,
		TotalEvaluations: count,
		PeriodStart:      start,
		PeriodEnd:        end,
	}, nil
}

func (s *EvaluationService) list(ctx context.Context, filter domain.EvaluationFilter) ([]domain.EvaluationDetails, error) {
	if filter.Offset < 0 {
		return nil, domain.InvalidInput("skip must not be negative")
	}
	if filter.Limit == 0 {
		filter.Limit = defaultEvaluationLimit
	}
	if filter.Limit < 1 || filter.Limit > maxEvaluationLimit {
		return nil, domain.InvalidInput("limit must be between 1 and 1000")
	}

	repos := s.store.Repos()

	evaluations, err := repos.Evaluations.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return newDetailer(repos).details(ctx, evaluations)
}

func validateRating(rating int) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return domain.ErrInvalidRating
	}

	return nil
}

const unknownName = "Unknown"

// detailer resolves task titles and user names, looking each id up once.
type detailer struct {
	repos  repository.Repositories
	tasks  map[domain.TaskID]string
	people map[domain.UserID]string
}

func newDetailer(repos repository.Repositories) *detailer {
	return &detailer{
		repos:  repos,
		tasks:  map[domain.TaskID]string{},
		people: map[domain.UserID]string{},
	}
}

func (d *detailer) details(ctx context.Context, evaluations []domain.Evaluation) ([]domain.EvaluationDetails, error) {
	out := make([]domain.EvaluationDetails, 0, len(evaluations))
	for _, e := range evaluations {
		taskTitle, err := d.taskTitle(ctx, e.TaskID)
		if err != nil {
			return nil, err
		}
		userName, err := d.name(ctx, e.UserID)
		if err != nil {
			return nil, err
		}
		evaluatorName, err := d.name(ctx, e.EvaluatorID)
		if err != nil {
			return nil, err
		}

		out = append(out, domain.EvaluationDetails{
			Evaluation:    e,
			TaskTitle:     taskTitle,
			UserName:      userName,
			EvaluatorName: evaluatorName,
		})
	}

	return out, nil
}

func (d *detailer) taskTitle(ctx context.Context, taskID domain.TaskID) (string, error) {
	if title, ok := d.tasks[taskID]; ok {
		return title, nil
	}

	title := unknownName
	task, err := d.repos.Tasks.TaskByID(ctx, taskID)
	switch {
	case err == nil:
		title = task.Title
	case !errors.Is(err, domain.ErrNotFound):
		return "", err
	}

	d.tasks[taskID] = title

	return title, nil
}

func (d *detailer) name(ctx context.Context, userID domain.UserID) (string, error) {
	if name, ok := d.people[userID]; ok {
		return name, nil
	}

	name := unknownName
	user, err := d.repos.Users.UserByID(ctx, userID)
	switch {
	case err == nil:
		name = user.DisplayName()
	case !errors.Is(err, domain.ErrNotFound):
		return "", err
	}

	d.people[userID] = name

	return name, nil
}
