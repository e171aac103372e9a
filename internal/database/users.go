package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tammmikel/task-botv2/internal/models"
)

const userColumns = `user_id, telegram_id, username, first_name, last_name, role, created_at`

// scanUser — единственная точка декодирования строк пользователей.
func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var username, firstName, lastName sql.NullString
	err := row.Scan(
		&u.UserID,
		&u.TelegramID,
		&username,
		&firstName,
		&lastName,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Username = username.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	return &u, nil
}

// CreateUser регистрирует пользователя при первом контакте. Выбор роли
// транзакционен: самый первый пользователь в базе становится директором,
// все последующие — админами, как бы ни пересекались конкурентные регистрации.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}

	if user.Role == "" {
		if count == 0 {
			user.Role = models.RoleDirector
		} else {
			user.Role = models.RoleAdmin
		}
	}

	user.UserID = newID()
	user.CreatedAt = now()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.UserID,
		user.TelegramID,
		nullable(user.Username),
		nullable(user.FirstName),
		nullable(user.LastName),
		user.Role,
		user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return tx.Commit()
}

func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	row := db.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return user, nil
}

func (db *DB) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	row := db.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// GetAssignees возвращает пользователей, которым можно назначить задачу,
// в алфавитном порядке.
func (db *DB) GetAssignees(ctx context.Context) ([]*models.User, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
         WHERE role IN (?, ?, ?, ?)
         ORDER BY first_name, last_name`,
		models.RoleAdmin, models.RoleMainAdmin, models.RoleDirector, models.RoleManager)
	if err != nil {
		return nil, fmt.Errorf("get assignees: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("get all users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (db *DB) UpdateUserRole(ctx context.Context, userID, role string) error {
	res, err := db.db.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE user_id = ?`, role, userID)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func collectUsers(rows *sql.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
