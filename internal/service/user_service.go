package service

import (
	"bms-service/internal/domain"
	"bms-service/internal/repository"
	"context"
	"log/slog"
	"net/mail"
	"strings"
)

type UserService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewUserService(store repository.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// CreateUser provisions an account record. Credentials live with the identity provider.
func (s *UserService) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	user.Email = strings.TrimSpace(user.Email)
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return domain.User{}, domain.InvalidInput("email is not valid")
	}

	created, err := s.store.Repos().Users.Create(ctx, user)
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("user created", "user_id", created.ID, "superuser", created.IsSuperuser)

	return created, nil
}

func (s *UserService) User(ctx context.Context, userID domain.UserID) (domain.User, error) {
	return s.store.Repos().Users.UserByID(ctx, userID)
}
