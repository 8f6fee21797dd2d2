package repository

import (
	"context"
	"time"

	"account-server/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// GroupRepository defines persistence for groups, permissions and the
// membership/grant relations between them and users.
type GroupRepository interface {
	Init(ctx context.Context) error
	CreateGroup(ctx context.Context, group *domain.Group) (int64, error)
	GetGroupByName(ctx context.Context, name string) (*domain.Group, error)
	AddUserToGroup(ctx context.Context, userID, groupID int64) error
	RemoveUserFromGroup(ctx context.Context, userID, groupID int64) error
	ListUserGroups(ctx context.Context, userID int64) ([]domain.Group, error)

	CreatePermission(ctx context.Context, perm *domain.Permission) (int64, error)
	GrantToUser(ctx context.Context, userID, permID int64) error
	GrantToGroup(ctx context.Context, groupID, permID int64) error
	ListUserPermissions(ctx context.Context, userID int64) ([]domain.Permission, error)
}
