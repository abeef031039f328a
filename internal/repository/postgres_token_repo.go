package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/taskauth/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したトークン台帳リポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Create はトークンレコードを作成する。is_validは常にtrueで作成する。
func (r *PostgresTokenRepo) Create(ctx context.Context, token *model.Token) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO user_tokens (user_id, token, expires_at, is_valid)
		 VALUES ($1, $2, $3, true)
		 RETURNING is_valid, created_at`,
		token.UserID, token.Token, token.ExpiresAt,
	).Scan(&token.IsValid, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// FindWithUser はトークン文字列で台帳を検索し、所有ユーザーとJOINして返す。
// 期限切れ・無効化済みのレコードも返す（判定は呼び出し側で行う）。
func (r *PostgresTokenRepo) FindWithUser(ctx context.Context, token string) (*model.TokenRecord, error) {
	rec := &model.TokenRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT ut.token, ut.user_id, ut.expires_at, ut.is_valid, ut.created_at,
		        u.username, u.email
		 FROM user_tokens ut
		 JOIN users u ON u.id = ut.user_id
		 WHERE ut.token = $1`,
		token,
	).Scan(
		&rec.Token.Token, &rec.UserID, &rec.ExpiresAt, &rec.IsValid, &rec.CreatedAt,
		&rec.Username, &rec.Email,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	return rec, nil
}

// Invalidate はトークンを無効化する。冪等。
func (r *PostgresTokenRepo) Invalidate(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_tokens SET is_valid = false WHERE token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
