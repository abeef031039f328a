package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/taskauth/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

const taskColumns = `task_id, task, created_by, created_at, updated_by, updated_at, deleted_by, deleted_at`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// Create はタスクを作成する。task_idとcreated_atはDB側で採番する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	created, err := scanTask(r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (task_id, task, created_by, created_at)
		 VALUES ($1, $2, $3, now())
		 RETURNING `+taskColumns,
		task.ID, task.Task, task.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// ListActive は論理削除されていないタスクを作成日時昇順で返す。
func (r *PostgresTaskRepo) ListActive(ctx context.Context) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE deleted_at IS NULL
		 ORDER BY created_at ASC, task_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// FindActiveByID は論理削除されていないタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindActiveByID(ctx context.Context, id string) (*model.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE task_id = $1 AND deleted_at IS NULL`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// Update は論理削除されていないタスクの本文を更新する。
// WHERE句でdeleted_at IS NULLを再確認するため、同時に削除された場合はnilを返す。
func (r *PostgresTaskRepo) Update(ctx context.Context, id, text, actor string) (*model.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		`UPDATE tasks
		 SET task = $1, updated_by = $2, updated_at = now()
		 WHERE task_id = $3 AND deleted_at IS NULL
		 RETURNING `+taskColumns,
		text, actor, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// SoftDelete は論理削除されていないタスクにdeleted_by/deleted_atを設定する。
func (r *PostgresTaskRepo) SoftDelete(ctx context.Context, id, actor string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET deleted_by = $1, deleted_at = now()
		 WHERE task_id = $2 AND deleted_at IS NULL`,
		actor, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// scanTask は1行をTaskに読み込む。NULL許容カラムはポインタに変換する。
func scanTask(row rowScanner) (*model.Task, error) {
	task := &model.Task{}
	var updatedBy, deletedBy sql.NullString
	var updatedAt, deletedAt sql.NullTime

	err := row.Scan(
		&task.ID, &task.Task, &task.CreatedBy, &task.CreatedAt,
		&updatedBy, &updatedAt, &deletedBy, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	task.UpdatedBy = nullStringPtr(updatedBy)
	task.UpdatedAt = nullTimePtr(updatedAt)
	task.DeletedBy = nullStringPtr(deletedBy)
	task.DeletedAt = nullTimePtr(deletedAt)
	return task, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
