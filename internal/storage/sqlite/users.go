package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/streck/internal/models"
	"github.com/mmynk/streck/internal/storage"
)

// SoftCreateGroupAndUser creates the group and the user unless they exist
// and returns the user. A user already registered in another group keeps
// its group.
func (s *SQLiteStore) SoftCreateGroupAndUser(ctx context.Context, externalGroupID, externalUserID string) (*models.User, error) {
	groupID, err := parseExternalID("group id", externalGroupID)
	if err != nil {
		return nil, err
	}
	userID, err := parseExternalID("user id", externalUserID)
	if err != nil {
		return nil, err
	}

	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.ExecuteTransaction(ctx, []Statement{
		Stmt(`INSERT INTO groups (external_id) VALUES (?) ON CONFLICT (external_id) DO NOTHING`, groupID),
		Stmt(`
			INSERT INTO users (external_id, group_id)
			VALUES (?, (SELECT id FROM groups WHERE external_id = ?))
			ON CONFLICT (external_id) DO NOTHING`,
			userID, groupID),
		Stmt(`SELECT `+userColumns+` FROM full_users WHERE external_id = ?`, userID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create group and user: %w", err)
	}
	if res.Len() == 0 {
		return nil, storage.ErrEmptyResult
	}

	user, err := scanUser(res.Row(0))
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser retrieves a user with its balance.
func (s *SQLiteStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	row, err := exec.FirstRow(ctx, Stmt(`SELECT `+userColumns+` FROM full_users WHERE id = ?`, userID))
	if errors.Is(err, storage.ErrEmptyResult) {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsersInGroup returns every member of the group in id order.
func (s *SQLiteStore) ListUsersInGroup(ctx context.Context, groupID int64) ([]models.User, error) {
	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.Execute(ctx, Stmt(`SELECT `+userColumns+` FROM full_users WHERE group_id = ? ORDER BY id`, groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return scanUsers(res)
}

// UserExistsInGroup reports whether the user belongs to the group.
func (s *SQLiteStore) UserExistsInGroup(ctx context.Context, userID, groupID int64) (bool, error) {
	return s.exists(ctx, Stmt(`SELECT EXISTS(SELECT 1 FROM users WHERE id = ? AND group_id = ?)`, userID, groupID))
}
