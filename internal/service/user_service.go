package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"account-server/internal/domain"
	"account-server/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when registering with a taken username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when a lookup matches no user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInactive is returned when a deactivated user tries to authenticate.
	ErrUserInactive = errors.New("user is inactive")
)

// RegisterInput carries the fields accepted at account creation.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	HasPerm(ctx context.Context, userID int64, codename string) (bool, error)
	EnsureSuperuser(ctx context.Context, username, password string) (*domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	groups repository.GroupRepository
}

func NewUserService(users repository.UserRepository, groups repository.GroupRepository) UserService {
	return &userService{
		users:  users,
		groups: groups,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Password = strings.TrimSpace(in.Password)

	if in.Username == "" {
		return nil, errors.New("username is required")
	}
	if in.Password == "" {
		return nil, errors.New("password is required")
	}
	if len(in.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
		DateJoined:   time.Now().UTC(),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("record login time: %w", err)
	}
	user.LastLogin = &now

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	groups, err := s.groups.ListUserGroups(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Groups = groups
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = *sanitizeUser(&users[i])
	}
	return users, nil
}

func (s *userService) SetActive(ctx context.Context, id int64, active bool) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	user.IsActive = active
	return s.users.Update(ctx, user)
}

// HasPerm reports whether the user holds the permission, directly or through
// a group. Superusers hold every permission; inactive users hold none.
func (s *userService) HasPerm(ctx context.Context, userID int64, codename string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	if !user.IsActive {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}

	perms, err := s.groups.ListUserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, perm := range perms {
		if perm.Codename == codename {
			return true, nil
		}
	}
	return false, nil
}

// EnsureSuperuser creates the named superuser if it does not exist yet.
// An existing user is promoted to staff/superuser but keeps its password.
func (s *userService) EnsureSuperuser(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("superuser username is required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if user.IsStaff && user.IsSuperuser {
			return sanitizeUser(user), nil
		}
		user.IsStaff = true
		user.IsSuperuser = true
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return sanitizeUser(user), nil
	case errors.Is(err, repository.ErrNotFound):
		// fall through to create
	default:
		return nil, err
	}

	if len(password) < 8 {
		return nil, errors.New("superuser password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user = &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
		DateJoined:   time.Now().UTC(),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsActive:    user.IsActive,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		LastLogin:   user.LastLogin,
		DateJoined:  user.DateJoined,
		Groups:      user.Groups,
	}
}
