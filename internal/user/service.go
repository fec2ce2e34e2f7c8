package user

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailAlreadyInUse = errors.New("email already in use")
)

// Store is the persistence surface the user service consumes,
// implemented by Repository
type Store interface {
	Create(ctx context.Context, req *CreateUserRequest) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	Update(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error)
	Delete(ctx context.Context, id int64) error
	AdminGroupIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Service handles user business logic
type Service struct {
	repo Store
}

// NewService creates a new user service
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Create registers a new user
func (s *Service) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyInUse
	}

	return s.repo.Create(ctx, req)
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List retrieves all users with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, perPage, offset)
}

// Update modifies a user's profile
func (s *Service) Update(ctx context.Context, id int64, req *UpdateUserRequest) (*User, error) {
	user, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Delete removes a user
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ResolveCapabilities derives a user's effective capability set. IsFounder
// follows the stored role; GroupAdminOf follows the explicit administrator
// relations regardless of role; IsMember means the user holds no elevated
// role. Founders keep founder capabilities even when they also administer
// groups.
func (s *Service) ResolveCapabilities(ctx context.Context, id int64) (*Capabilities, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	groupIDs, err := s.repo.AdminGroupIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if groupIDs == nil {
		groupIDs = []int64{}
	}

	return &Capabilities{
		IsFounder:    user.Role == RoleFounder,
		GroupAdminOf: groupIDs,
		IsMember:     user.Role == RoleMember,
	}, nil
}
