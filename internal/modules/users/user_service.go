package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grocery-dispatch/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ServiceInterface defines methods for user business logic.
type ServiceInterface interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)

	ListAddresses(ctx context.Context, userID string) ([]*models.Address, error)
	AddAddress(ctx context.Context, userID string, req models.AddAddressRequest) (*models.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID string, req models.UpdateAddressRequest) (*models.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
}

type Service struct {
	userRepo  RepositoryInterface
	jwtSecret string
	tokenTTL  time.Duration
}

func NewService(userRepo RepositoryInterface, jwtSecret string, tokenTTL time.Duration) ServiceInterface {
	return &Service{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	// 1. Check if user with that email already exists
	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.Signup.FindByEmail: %w", err)
	}
	if err == nil {
		// User was found, email is taken
		return nil, models.ErrConflict
	}

	// 2. Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.HashPassword: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}

	createdUser, err := s.userRepo.CreateUser(ctx, req.Name, req.Email, string(hashedPassword), role)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.CreateUser: %w", err)
	}

	// Log the new account in right away.
	return s.generateAuthResponse(createdUser)
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	userWithHash, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.Login.FindByEmail: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userWithHash.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return s.generateAuthResponse(userWithHash)
}

// generateAuthResponse signs a JWT for the user. The role claim is what the
// router's partner-only groups are gated on.
func (s *Service) generateAuthResponse(user *models.User) (*models.AuthResponse, error) {
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenSignedString, err := accessToken.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	user.PasswordHash = "" // Do NOT send sensitive info back

	return &models.AuthResponse{
		AccessToken: tokenSignedString,
		User:        user,
	}, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.GetProfile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) ListAddresses(ctx context.Context, userID string) ([]*models.Address, error) {
	addresses, err := s.userRepo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ListAddresses: %w", err)
	}
	return addresses, nil
}

func (s *Service) AddAddress(ctx context.Context, userID string, req models.AddAddressRequest) (*models.Address, error) {
	if !(models.GeoPoint{Latitude: req.Latitude, Longitude: req.Longitude}).Valid() {
		return nil, models.ErrInvalidLocation
	}
	address, err := s.userRepo.AddAddress(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("service.AddAddress: %w", err)
	}
	return address, nil
}

func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, req models.UpdateAddressRequest) (*models.Address, error) {
	// Coordinates may be patched independently, but never to an invalid value.
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		return nil, models.ErrInvalidLocation
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		return nil, models.ErrInvalidLocation
	}

	// The WHERE user_id clause scopes the update to the owner, so a
	// foreign address id comes back as not found.
	address, err := s.userRepo.UpdateAddress(ctx, addressID, userID, req)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateAddress: %w", err)
	}
	return address, nil
}

func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	if err := s.userRepo.DeleteAddress(ctx, addressID, userID); err != nil {
		return fmt.Errorf("service.DeleteAddress: %w", err)
	}
	return nil
}
