package model

import "time"

// Task は認証済みユーザーが共有するタスクを表す。
// 削除は論理削除（DeletedAtを設定）で行い、行は保持する。
type Task struct {
	ID        string
	Task      string
	CreatedBy string
	CreatedAt time.Time
	UpdatedBy *string
	UpdatedAt *time.Time
	DeletedBy *string
	DeletedAt *time.Time
}

// IsDeleted は論理削除済みかどうかを返す。
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}
