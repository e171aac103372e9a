package database

import (
	"context"
	"fmt"

	"github.com/tammmikel/task-botv2/internal/models"
)

func (db *DB) CreateTaskComment(ctx context.Context, comment *models.TaskComment) error {
	comment.CommentID = newID()
	comment.CreatedAt = now()

	_, err := db.db.ExecContext(ctx,
		`INSERT INTO task_comments (comment_id, task_id, user_id, comment_text, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		comment.CommentID,
		comment.TaskID,
		comment.UserID,
		comment.CommentText,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task comment: %w", err)
	}
	return nil
}

func (db *DB) GetTaskComments(ctx context.Context, taskID string) ([]*models.TaskComment, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT comment_id, task_id, user_id, comment_text, created_at
         FROM task_comments WHERE task_id = ? ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.TaskComment
	for rows.Next() {
		var c models.TaskComment
		if err := rows.Scan(&c.CommentID, &c.TaskID, &c.UserID, &c.CommentText, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task comment: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
