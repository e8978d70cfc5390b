package services

import (
	"context"

	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/models"
)

// UserService resolves identities handed over by the auth layer.
// Accounts are provisioned by the external auth server.
type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// GetByUsername returns NotFound(user) for an unknown username
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, notFoundOr(err, "user", username)
	}
	return &user, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return &user, nil
}
