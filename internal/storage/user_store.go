package storage

import (
	"errors"

	"connectly/backend/internal/models"

	"gorm.io/gorm"
)

// GetUserByID returns the user or (nil, nil) when no such user exists.
func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDB(err)
	}
	return &user, nil
}

// GetUsersByIDs loads users in bulk for populating conversation peers.
func (s *Service) GetUsersByIDs(ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrapDB(err)
	}
	return users, nil
}

// SaveUser upserts a user record.
func (s *Service) SaveUser(user *models.User) error {
	return wrapDB(s.DB.Save(user).Error)
}
