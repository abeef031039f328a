package model

import "fmt"

// ErrorKind はエラーの種別を表す。
// HTTPステータスへの変換はmiddleware.StatusForKindで一元的に行う。
type ErrorKind int

const (
	// KindInternal は想定外のストア・暗号処理エラー。
	KindInternal ErrorKind = iota
	// KindValidation は入力の欠落・形式不正。
	KindValidation
	// KindConflict はユーザーの重複登録。
	KindConflict
	// KindAuth は認証失敗。
	KindAuth
	// KindNotFound は指定リソースが存在しない。
	KindNotFound
)

// APIError は統一エラーフォーマットを表す。
type APIError struct {
	Kind    ErrorKind
	Code    string // エラーコード
	Message string // エラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNoToken            = "NO_TOKEN"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeTokenNotFound      = "TOKEN_NOT_FOUND"
	ErrCodeTokenRevoked       = "TOKEN_REVOKED"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeTaskNotFound       = "TASK_NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// NewInvalidBodyError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidBodyError() *APIError {
	return NewValidationError("Invalid request body")
}

// NewConflictError はユーザー重複エラーを生成する。
func NewConflictError() *APIError {
	return &APIError{
		Kind:    KindConflict,
		Code:    ErrCodeConflict,
		Message: "User with this email or username already exists",
	}
}

// NewNoTokenError はAuthorizationヘッダー欠落エラーを生成する。
func NewNoTokenError() *APIError {
	return &APIError{
		Kind:    KindAuth,
		Code:    ErrCodeNoToken,
		Message: "No token provided",
	}
}

// NewInvalidTokenError は署名検証失敗エラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Kind:    KindAuth,
		Code:    ErrCodeInvalidToken,
		Message: "Invalid token format",
	}
}

// NewTokenNotFoundError は台帳に存在しないトークンのエラーを生成する。
func NewTokenNotFoundError() *APIError {
	return &APIError{
		Kind:    KindAuth,
		Code:    ErrCodeTokenNotFound,
		Message: "Token not found in database",
	}
}

// NewTokenRevokedError は無効化済みトークンのエラーを生成する。
func NewTokenRevokedError() *APIError {
	return &APIError{
		Kind:    KindAuth,
		Code:    ErrCodeTokenRevoked,
		Message: "Token has been invalidated",
	}
}

// NewTokenExpiredError は期限切れトークンのエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Kind:    KindAuth,
		Code:    ErrCodeTokenExpired,
		Message: "Token has expired",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレス未登録とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Kind:    KindAuth,
		Code:    ErrCodeInvalidCredentials,
		Message: "Invalid email or password",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Code:    ErrCodeUserNotFound,
		Message: "User not found",
	}
}

// NewTaskNotFoundError はタスクが見つからない場合のエラーを生成する。
func NewTaskNotFoundError() *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Code:    ErrCodeTaskNotFound,
		Message: "Task not found",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Kind:    KindInternal,
		Code:    ErrCodeInternal,
		Message: "Internal server error",
	}
}
