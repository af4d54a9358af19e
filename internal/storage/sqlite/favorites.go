package sqlite

import (
	"context"
	"fmt"
)

func addFavorite(userID, itemID int64) Statement {
	return Stmt(`INSERT INTO favorite_items (user_id, item_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, userID, itemID)
}

func removeFavorite(userID, itemID int64) Statement {
	return Stmt(`DELETE FROM favorite_items WHERE user_id = ? AND item_id = ?`, userID, itemID)
}

// AddFavorite marks the item as a favorite of the user. Adding twice is a no-op.
func (s *SQLiteStore) AddFavorite(ctx context.Context, userID, itemID int64) error {
	exec, err := s.executor(ctx)
	if err != nil {
		return err
	}
	if _, err := exec.Execute(ctx, addFavorite(userID, itemID)); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite unmarks the item. Removing a missing favorite is a no-op.
func (s *SQLiteStore) RemoveFavorite(ctx context.Context, userID, itemID int64) error {
	exec, err := s.executor(ctx)
	if err != nil {
		return err
	}
	if _, err := exec.Execute(ctx, removeFavorite(userID, itemID)); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether the item is a favorite of the user.
func (s *SQLiteStore) IsFavorite(ctx context.Context, userID, itemID int64) (bool, error) {
	return s.exists(ctx, Stmt(`SELECT EXISTS(SELECT 1 FROM favorite_items WHERE user_id = ? AND item_id = ?)`, userID, itemID))
}
