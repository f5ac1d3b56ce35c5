package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"routineboard/internal/database"
	"routineboard/internal/models"
	"routineboard/internal/routine"
)

// AchievementRepository handles badge definitions and awards
type AchievementRepository struct {
	db database.DBTX
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// ListChildAchievements retrieves a child's awarded badges, newest first.
// A non-empty SessionID narrows the result to that session's awards.
func (r *AchievementRepository) ListChildAchievements(ctx context.Context, filter routine.AchievementFilter) ([]models.ChildAchievement, error) {
	query := `
		SELECT a.id, a.code, a.name, a.description, a.icon_url, ca.awarded_at, ca.metadata
		FROM child_achievements ca
		JOIN achievements a ON a.id = ca.achievement_id
		WHERE ca.child_profile_id = ?
	`
	args := []any{filter.ChildProfileID}
	if filter.SessionID != "" {
		query += " AND ca.session_id = ?"
		args = append(args, filter.SessionID)
	}
	query += " ORDER BY ca.awarded_at DESC, a.code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var out []models.ChildAchievement
	for rows.Next() {
		var a models.ChildAchievement
		var metadata sql.NullString
		if err := rows.Scan(
			&a.AchievementID,
			&a.Code,
			&a.Name,
			&a.Description,
			&a.IconURL,
			&a.AwardedAt,
			&metadata,
		); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &a.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s: %w", a.Code, err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAchievement creates or updates a badge definition by code
func (r *AchievementRepository) UpsertAchievement(ctx context.Context, a *models.Achievement) error {
	var existing string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM achievements WHERE code = ?", a.Code).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		query := "INSERT INTO achievements (id, code, name, description, icon_url) VALUES (?, ?, ?, ?, ?)"
		if _, err := r.db.ExecContext(ctx, query, a.ID, a.Code, a.Name, a.Description, a.IconURL); err != nil {
			return fmt.Errorf("failed to create achievement: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to check achievement: %w", err)
	}

	a.ID = existing
	query := "UPDATE achievements SET name = ?, description = ?, icon_url = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, a.Name, a.Description, a.IconURL, a.ID); err != nil {
		return fmt.Errorf("failed to update achievement: %w", err)
	}
	return nil
}

// AwardOnce grants the badge with the given code unless the child already holds it.
// It reports false when the badge is unknown or already awarded.
func (r *AchievementRepository) AwardOnce(ctx context.Context, childID, code, sessionID string, awardedAt time.Time, metadata map[string]any) (bool, error) {
	var achievementID string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM achievements WHERE code = ?", code).Scan(&achievementID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up achievement %s: %w", code, err)
	}

	var held int
	query := "SELECT COUNT(*) FROM child_achievements WHERE child_profile_id = ? AND achievement_id = ?"
	if err := r.db.QueryRowContext(ctx, query, childID, achievementID).Scan(&held); err != nil {
		return false, fmt.Errorf("failed to check achievement %s: %w", code, err)
	}
	if held > 0 {
		return false, nil
	}

	var encoded sql.NullString
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return false, fmt.Errorf("failed to encode metadata: %w", err)
		}
		encoded = sql.NullString{String: string(raw), Valid: true}
	}

	insert := `
		INSERT INTO child_achievements (id, child_profile_id, achievement_id, session_id, awarded_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, insert,
		uuid.NewString(), childID, achievementID, nullString(sessionID), awardedAt.UTC(), encoded,
	); err != nil {
		return false, fmt.Errorf("failed to award achievement %s: %w", code, err)
	}
	return true, nil
}
