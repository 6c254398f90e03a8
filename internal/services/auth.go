package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"aish-backend/internal/apperr"
	"aish-backend/internal/models"
	"aish-backend/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// AuthService registers and authenticates doctors.
type AuthService struct {
	db     *gorm.DB
	hasher utils.PasswordHasher
	log    *zap.Logger
}

func NewAuthService(db *gorm.DB, hasher utils.PasswordHasher, log *zap.Logger) *AuthService {
	return &AuthService{db: db, hasher: hasher, log: log}
}

// ListDoctors returns every registered doctor ordered by name. Only names
// are loaded.
func (s *AuthService) ListDoctors(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Select("name").Order("name asc").Find(&users).Error; err != nil {
		s.log.Error("list doctors", zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, "Failed to fetch doctors", err)
	}
	return users, nil
}

// Register stores a new doctor and returns the normalized name.
func (s *AuthService) Register(ctx context.Context, name, password string) (string, error) {
	if strings.TrimSpace(name) == "" || password == "" {
		return "", apperr.New(apperr.Validation, "Name and password are required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", apperr.New(apperr.Validation, "Password must be at least 6 characters")
	}
	name = models.NormalizeDoctorName(name)

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("name = ?", name).Count(&existing).Error; err != nil {
		return "", apperr.Wrap(apperr.Internal, "Registration failed", err)
	}
	if existing > 0 {
		return "", apperr.New(apperr.Conflict, "Doctor already registered")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "Registration failed", err)
	}
	user := models.User{Name: name, PasswordHash: hash, Role: models.RoleDoctor}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return "", apperr.New(apperr.Conflict, "Doctor already registered")
		}
		s.log.Error("register doctor", zap.String("name", name), zap.Error(err))
		return "", apperr.Wrap(apperr.Internal, "Registration failed", err)
	}

	s.log.Info("doctor registered", zap.String("name", name))
	return name, nil
}

// Login checks the password of the doctor called name. The name goes
// through the same normalization as Register, so "Alice" finds "Dr. Alice".
// Accounts stored without the prefix are still found by their exact name.
func (s *AuthService) Login(ctx context.Context, name, password string) (*models.User, error) {
	exact := strings.TrimSpace(name)
	if exact == "" || password == "" {
		return nil, apperr.New(apperr.Validation, "Name and password are required")
	}
	normalized := models.NormalizeDoctorName(exact)

	var users []models.User
	if err := s.db.WithContext(ctx).Where("name IN ?", []string{normalized, exact}).Find(&users).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Login failed", err)
	}
	if len(users) == 0 {
		return nil, apperr.New(apperr.NotFound, "Doctor not found")
	}
	user := users[0]
	for _, u := range users {
		if u.Name == normalized {
			user = u
		}
	}
	if !s.hasher.Check(password, user.PasswordHash) {
		return nil, apperr.New(apperr.Unauthorized, "Invalid password")
	}
	return &user, nil
}

// isDuplicate reports a unique constraint violation. Drivers that do not
// translate errors are matched on their message.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value violates unique constraint")
}
