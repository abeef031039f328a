// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 登録後は不変で、このサービスでは削除しない。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
}

// TokenState はトークン台帳上のトークン状態を表す。
type TokenState int

const (
	// TokenActive は有効期限内かつ失効していない状態。
	TokenActive TokenState = iota
	// TokenRevoked はログアウト等で無効化済みの状態。
	TokenRevoked
	// TokenExpired は有効期限を過ぎた状態。
	TokenExpired
)

// String はログ出力用の状態名を返す。
func (s TokenState) String() string {
	switch s {
	case TokenActive:
		return "active"
	case TokenRevoked:
		return "revoked"
	case TokenExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Token はログイン時に発行したトークンの台帳レコードを表す。
// 物理削除はせず、is_validの更新のみで失効を記録する。
type Token struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	IsValid   bool
	CreatedAt time.Time
}

// MarkExpiredIfPast はnow時点のトークン状態を判定する。
// 無効化済みならTokenRevokedを返す。
// 有効期限切れの場合はIsValidをfalseに遷移させてTokenExpiredを返す。
// 永続化は呼び出し側の責務。
func (t *Token) MarkExpiredIfPast(now time.Time) TokenState {
	if !t.IsValid {
		return TokenRevoked
	}
	if t.ExpiresAt.Before(now) {
		t.IsValid = false
		return TokenExpired
	}
	return TokenActive
}

// TokenRecord はトークン台帳レコードと所有ユーザーの情報を結合したもの。
type TokenRecord struct {
	Token
	Username string
	Email    string
}

// Principal は認証済みリクエストの主体を表す。
// UserIDは署名済みクレーム、Username/Emailは台帳JOIN結果から取得する。
type Principal struct {
	UserID   string
	Email    string
	Username string
	Token    string
}
