package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/streck/internal/models"
	"github.com/mmynk/streck/internal/storage"
)

// GetGroup retrieves a group and its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID int64) (*models.Group, error) {
	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	externalID, err := exec.FirstString(ctx, Stmt(`SELECT external_id FROM groups WHERE id = ?`, groupID))
	if errors.Is(err, storage.ErrEmptyResult) {
		return nil, fmt.Errorf("group %d: %w", groupID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := s.ListUsersInGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &models.Group{
		ID:         groupID,
		ExternalID: externalID,
		Members:    members,
	}, nil
}
