// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/taskauth/internal/model"
	"github.com/lib/pq"
)

// ErrDuplicate は一意制約違反（SQLSTATE 23505）を表す。
var ErrDuplicate = errors.New("duplicate key")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByEmailOrUsername はメールアドレスまたはユーザー名が一致するユーザーを1件取得する。
	// 見つからない場合はnilを返す。
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)

	// Create はユーザーを作成する。一意制約違反の場合はErrDuplicateをラップして返す。
	Create(ctx context.Context, user *model.User) error
}

// TokenRepository はトークン台帳の永続化インターフェース。
// レコードは削除せず、is_validの更新のみを行う。
type TokenRepository interface {
	// Create はトークンレコードを作成する。
	Create(ctx context.Context, token *model.Token) error

	// FindWithUser はトークン文字列で台帳を検索し、所有ユーザーの情報と結合して返す。
	// 見つからない場合はnilを返す。
	FindWithUser(ctx context.Context, token string) (*model.TokenRecord, error)

	// Invalidate はトークンを無効化する。存在しない・無効化済みでもエラーにしない。
	Invalidate(ctx context.Context, token string) error
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// Create はタスクを作成し、採番・デフォルト値を反映したタスクを返す。
	Create(ctx context.Context, task *model.Task) (*model.Task, error)

	// ListActive は論理削除されていないタスクを作成日時昇順で返す。
	ListActive(ctx context.Context) ([]*model.Task, error)

	// FindActiveByID は論理削除されていないタスクを取得する。見つからない場合はnilを返す。
	FindActiveByID(ctx context.Context, id string) (*model.Task, error)

	// Update は論理削除されていないタスクの本文を更新する。
	// 対象行がない場合（同時削除を含む）はnilを返す。
	Update(ctx context.Context, id, text, actor string) (*model.Task, error)

	// SoftDelete は論理削除されていないタスクを論理削除する。
	// 対象行があった場合にtrueを返す。
	SoftDelete(ctx context.Context, id, actor string) (bool, error)
}

// isUniqueViolation はPostgreSQLの一意制約違反エラーかどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
