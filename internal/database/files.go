package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tammmikel/task-botv2/internal/models"
)

const fileColumns = `file_id, task_id, user_id, file_name, file_path, file_size,
       content_type, thumbnail_path, created_at`

func scanTaskFile(row interface{ Scan(...any) error }) (*models.TaskFile, error) {
	var f models.TaskFile
	var contentType, thumbnailPath sql.NullString
	err := row.Scan(
		&f.FileID,
		&f.TaskID,
		&f.UserID,
		&f.FileName,
		&f.FilePath,
		&f.FileSize,
		&contentType,
		&thumbnailPath,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.ContentType = contentType.String
	f.ThumbnailPath = thumbnailPath.String
	return &f, nil
}

func (db *DB) CreateTaskFile(ctx context.Context, file *models.TaskFile) error {
	file.FileID = newID()
	file.CreatedAt = now()

	_, err := db.db.ExecContext(ctx,
		`INSERT INTO task_files (`+fileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.FileID,
		file.TaskID,
		file.UserID,
		file.FileName,
		file.FilePath,
		file.FileSize,
		nullable(file.ContentType),
		nullable(file.ThumbnailPath),
		file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task file: %w", err)
	}
	return nil
}

func (db *DB) GetTaskFiles(ctx context.Context, taskID string) ([]*models.TaskFile, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM task_files WHERE task_id = ? ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task files: %w", err)
	}
	defer rows.Close()

	var files []*models.TaskFile
	for rows.Next() {
		file, err := scanTaskFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}
