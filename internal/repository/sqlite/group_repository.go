package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"account-server/internal/domain"
	"account-server/internal/repository"
)

var createGroupTables = fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS groups (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS permissions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	codename TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS user_groups (
	user_id INTEGER NOT NULL REFERENCES %[1]s(id) ON DELETE CASCADE,
	group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, group_id)
);

CREATE TABLE IF NOT EXISTS user_permissions (
	user_id INTEGER NOT NULL REFERENCES %[1]s(id) ON DELETE CASCADE,
	permission_id INTEGER NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, permission_id)
);

CREATE TABLE IF NOT EXISTS group_permissions (
	group_id INTEGER NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	permission_id INTEGER NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
	PRIMARY KEY (group_id, permission_id)
);
`, domain.UserTable)

type GroupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) repository.GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createGroupTables); err != nil {
		return fmt.Errorf("create group tables: %w", err)
	}
	return nil
}

func (r *GroupRepository) CreateGroup(ctx context.Context, group *domain.Group) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO groups (name) VALUES (?)`, group.Name)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, fmt.Errorf("group %q: %w", group.Name, repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("group last insert id: %w", err)
	}
	group.ID = id
	return id, nil
}

func (r *GroupRepository) GetGroupByName(ctx context.Context, name string) (*domain.Group, error) {
	var group domain.Group
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM groups WHERE name = ?`, name).
		Scan(&group.ID, &group.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan group: %w", err)
	}
	return &group, nil
}

func (r *GroupRepository) AddUserToGroup(ctx context.Context, userID, groupID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO user_groups (user_id, group_id) VALUES (?, ?)`,
		userID, groupID,
	)
	if err != nil {
		return fmt.Errorf("add user to group: %w", err)
	}
	return nil
}

func (r *GroupRepository) RemoveUserFromGroup(ctx context.Context, userID, groupID int64) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM user_groups WHERE user_id = ? AND group_id = ?`,
		userID, groupID,
	)
	if err != nil {
		return fmt.Errorf("remove user from group: %w", err)
	}
	return nil
}

func (r *GroupRepository) ListUserGroups(ctx context.Context, userID int64) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT g.id, g.name
FROM groups g
JOIN user_groups ug ON ug.group_id = g.id
WHERE ug.user_id = ?
ORDER BY g.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var group domain.Group
		if err := rows.Scan(&group.ID, &group.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *GroupRepository) CreatePermission(ctx context.Context, perm *domain.Permission) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO permissions (codename, name) VALUES (?, ?)`,
		perm.Codename, perm.Name,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, fmt.Errorf("permission %q: %w", perm.Codename, repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert permission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("permission last insert id: %w", err)
	}
	perm.ID = id
	return id, nil
}

func (r *GroupRepository) GrantToUser(ctx context.Context, userID, permID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO user_permissions (user_id, permission_id) VALUES (?, ?)`,
		userID, permID,
	)
	if err != nil {
		return fmt.Errorf("grant permission to user: %w", err)
	}
	return nil
}

func (r *GroupRepository) GrantToGroup(ctx context.Context, groupID, permID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO group_permissions (group_id, permission_id) VALUES (?, ?)`,
		groupID, permID,
	)
	if err != nil {
		return fmt.Errorf("grant permission to group: %w", err)
	}
	return nil
}

// ListUserPermissions returns the union of permissions granted to the user
// directly and through group membership.
func (r *GroupRepository) ListUserPermissions(ctx context.Context, userID int64) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.codename, p.name
FROM permissions p
JOIN user_permissions up ON up.permission_id = p.id
WHERE up.user_id = ?
UNION
SELECT p.id, p.codename, p.name
FROM permissions p
JOIN group_permissions gp ON gp.permission_id = p.id
JOIN user_groups ug ON ug.group_id = gp.group_id
WHERE ug.user_id = ?
ORDER BY codename`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user permissions: %w", err)
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var perm domain.Permission
		if err := rows.Scan(&perm.ID, &perm.Codename, &perm.Name); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}
