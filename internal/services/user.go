package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/apperr"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/logger"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/repos"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/requestdata"
	"github.com/jacobreesgit/canoncore-franchise-sub000/internal/types"
)

type UserService interface {
	GetSelf(ctx context.Context, tx *gorm.DB) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      baseLog.With("service", "UserService"),
		userRepo: userRepo,
	}
}

// GetSelf resolves the acting user's own record. Identity arrives as a token
// subject, so a valid token for an account this store has never seen is
// NotFound rather than a silent empty profile.
func (s *userService) GetSelf(ctx context.Context, tx *gorm.DB) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrNotAuthenticated
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	rows, err := s.userRepo.GetByIDs(ctx, transaction, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, apperr.ErrNotFound
	}
	return rows[0], nil
}
