package services

import (
	"context"
	"errors"

	"trade-backend/internal/auth"
	"trade-backend/internal/models"
	"trade-backend/internal/repositories"
)

type UserService struct {
	Repo       *repositories.UserRepository
	JWTManager *auth.JWTManager
}

func NewUserService(repo *repositories.UserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
	}
}

// Signup creates a new user with hashed password. The first user on a fresh
// install becomes admin; everyone after that is a manager.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, validationErrorf("name, email, and password are required")
	}
	if len(req.Password) < 8 {
		return nil, validationErrorf("password must be at least 8 characters")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	count, err := s.Repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	role := "manager"
	if count == 0 {
		role = "admin"
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         role,
		IsActive:     true,
	}

	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, validationErrorf("user with this email already exists")
		}
		return nil, err
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  user,
	}, nil
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, validationErrorf("email and password are required")
	}

	user, err := s.Repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, validationErrorf("invalid email or password")
	}

	if !user.IsActive {
		return nil, validationErrorf("account is disabled")
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, validationErrorf("invalid email or password")
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  user,
	}, nil
}
