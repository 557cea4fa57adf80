package services

import (
	"log/slog"

	"estate-chat/auth"
	"estate-chat/errors"
	"estate-chat/repositories"
)

type IAuthService interface {
	Register(email, password string) (string, error)
	Login(email, password string) (string, error)
}

// AuthService handles account registration and login for marketplace users.
type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
}

func NewAuthService(log *slog.Logger, userRepository repositories.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		log:            log,
		userRepository: userRepository,
		tokens:         tokens,
	}
}

// Register creates an account with an Argon2id password hash and returns the
// new user ID. The plain password never reaches the repository.
func (s *AuthService) Register(email, password string) (string, error) {
	if err := auth.ValidateRegister(auth.RegisterRequest{Email: email, Password: password}); err != nil {
		return "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	userID, err := s.userRepository.CreateUser(email, hash)
	if err != nil {
		return "", err
	}

	s.log.Info("User registered", "user", userID)
	return userID, nil
}

// Login verifies the credentials and returns a signed session token.
// Lookup and comparison failures collapse into the same error so callers
// cannot probe which accounts exist.
func (s *AuthService) Login(email, password string) (string, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Roles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return token, nil
}
