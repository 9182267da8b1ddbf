package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lyra-backend-go/internal/db"
	"lyra-backend-go/internal/models"
)

// DefaultAuthProvider tags principals whose token carries no sign-in method.
const DefaultAuthProvider = "firebase"

type userService struct {
	users  db.UserRepository
	logger *zap.Logger
}

// NewUserService creates a UserService backed by users.
func NewUserService(users db.UserRepository, logger *zap.Logger) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{users: users, logger: logger}
}

// FindOrCreate provisions a principal on first login. The lookup and creation are
// a single atomic store operation, so concurrent first requests yield one record.
func (s *userService) FindOrCreate(ctx context.Context, claims Claims) (*models.User, bool, error) {
	email := strings.TrimSpace(claims.Email)
	if email == "" {
		return nil, false, fmt.Errorf("%w: verified identity has no email", ErrAuthenticationRequired)
	}

	username := models.UsernameFromEmail(email)
	displayName := claims.DisplayName
	if displayName == "" {
		displayName = username
	}
	provider := claims.SignInMethod
	if provider == "" {
		provider = DefaultAuthProvider
	}

	user, created, err := s.users.FindOrCreateByEmail(ctx, &models.User{
		Username:     username,
		Email:        email,
		AuthProvider: provider,
		ProviderID:   claims.UID,
		DisplayName:  displayName,
		PhotoURL:     claims.PhotoURL,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to find or create user %q: %w", email, err)
	}
	if created {
		s.logger.Info("Provisioned new principal",
			zap.Int64("userID", user.ID),
			zap.String("username", user.Username),
			zap.String("authProvider", user.AuthProvider))
	}
	return user, created, nil
}

func (s *userService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrPrincipalNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return user, nil
}
