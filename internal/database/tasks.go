package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tammmikel/task-botv2/internal/models"
)

const taskColumns = `t.task_id, t.title, t.description, t.company_id, c.name,
       t.initiator_name, t.initiator_phone, t.assignee_id, t.created_by,
       t.priority, t.status, t.deadline, t.created_at, t.updated_at`

const taskFrom = ` FROM tasks t LEFT JOIN companies c ON c.company_id = t.company_id`

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	var t models.Task
	var description, companyName sql.NullString
	err := row.Scan(
		&t.TaskID,
		&t.Title,
		&description,
		&t.CompanyID,
		&companyName,
		&t.InitiatorName,
		&t.InitiatorPhone,
		&t.AssigneeID,
		&t.CreatedBy,
		&t.Priority,
		&t.Status,
		&t.Deadline,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.CompanyName = companyName.String
	return &t, nil
}

func (db *DB) CreateTask(ctx context.Context, task *models.Task) error {
	task.TaskID = newID()
	task.Status = models.StatusNew
	task.CreatedAt = now()
	task.UpdatedAt = task.CreatedAt

	_, err := db.db.ExecContext(ctx,
		`INSERT INTO tasks (task_id, title, description, company_id, initiator_name,
            initiator_phone, assignee_id, created_by, priority, status,
            deadline, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.TaskID,
		task.Title,
		nullable(task.Description),
		task.CompanyID,
		task.InitiatorName,
		task.InitiatorPhone,
		task.AssigneeID,
		task.CreatedBy,
		task.Priority,
		task.Status,
		task.Deadline,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (db *DB) GetTaskByID(ctx context.Context, taskID string) (*models.Task, error) {
	row := db.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+taskFrom+` WHERE t.task_id = ?`, taskID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// GetUserTasks возвращает задачи, видимые пользователю. Директор видит все,
// менеджеры — созданные ими или назначенные им, админы — только свои
// назначения.
func (db *DB) GetUserTasks(ctx context.Context, userID, role string) ([]*models.Task, error) {
	var (
		query string
		args  []any
	)

	switch role {
	case models.RoleDirector:
		query = `SELECT ` + taskColumns + taskFrom + ` ORDER BY t.created_at DESC`
	case models.RoleManager:
		query = `SELECT ` + taskColumns + taskFrom +
			` WHERE t.created_by = ? OR t.assignee_id = ? ORDER BY t.created_at DESC`
		args = []any{userID, userID}
	default:
		query = `SELECT ` + taskColumns + taskFrom +
			` WHERE t.assignee_id = ? ORDER BY t.created_at DESC`
		args = []any{userID}
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get user tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// GetUserTasksByCompany — тот же GetUserTasks, суженный до одной компании.
func (db *DB) GetUserTasksByCompany(ctx context.Context, userID, role, companyID string) ([]*models.Task, error) {
	var (
		query string
		args  []any
	)

	switch role {
	case models.RoleDirector:
		query = `SELECT ` + taskColumns + taskFrom +
			` WHERE t.company_id = ? ORDER BY t.created_at DESC`
		args = []any{companyID}
	case models.RoleManager:
		query = `SELECT ` + taskColumns + taskFrom +
			` WHERE t.company_id = ? AND (t.created_by = ? OR t.assignee_id = ?) ORDER BY t.created_at DESC`
		args = []any{companyID, userID, userID}
	default:
		query = `SELECT ` + taskColumns + taskFrom +
			` WHERE t.company_id = ? AND t.assignee_id = ? ORDER BY t.created_at DESC`
		args = []any{companyID, userID}
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get user tasks by company: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// GetCompaniesWithTasks возвращает компании, у которых есть видимые
// пользователю задачи, вместе со счетчиками — для фильтра по компаниям.
func (db *DB) GetCompaniesWithTasks(ctx context.Context, userID, role string) ([]*models.CompanyTaskCount, error) {
	var (
		where string
		args  []any
	)

	switch role {
	case models.RoleDirector:
	case models.RoleManager:
		where = ` WHERE t.created_by = ? OR t.assignee_id = ?`
		args = []any{userID, userID}
	default:
		where = ` WHERE t.assignee_id = ?`
		args = []any{userID}
	}

	rows, err := db.db.QueryContext(ctx,
		`SELECT c.company_id, c.name, COUNT(t.task_id) AS task_count
         FROM tasks t JOIN companies c ON c.company_id = t.company_id`+where+`
         GROUP BY c.company_id, c.name
         ORDER BY task_count DESC, c.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("get companies with tasks: %w", err)
	}
	defer rows.Close()

	var counts []*models.CompanyTaskCount
	for rows.Next() {
		var c models.CompanyTaskCount
		if err := rows.Scan(&c.CompanyID, &c.Name, &c.TaskCount); err != nil {
			return nil, fmt.Errorf("scan company count: %w", err)
		}
		counts = append(counts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// UpdateTaskStatus выполняет допустимый переход статуса и обновляет
// updated_at. Проверка и запись идут в одной транзакции.
func (db *DB) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE task_id = ?`, taskID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read task status: %w", err)
	}

	if !models.CanTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE task_id = ?`,
		status, now(), taskID)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}

	return tx.Commit()
}

// MarkOverdueTasks переводит в overdue все активные задачи с истекшим
// дедлайном. Возвращает число затронутых задач.
func (db *DB) MarkOverdueTasks(ctx context.Context, deadline time.Time) (int64, error) {
	res, err := db.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ?
         WHERE status IN (?, ?) AND deadline < ?`,
		models.StatusOverdue, now(),
		models.StatusNew, models.StatusInProgress, deadline)
	if err != nil {
		return 0, fmt.Errorf("mark overdue tasks: %w", err)
	}
	return res.RowsAffected()
}

func collectTasks(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}
