package handler

import (
	"context"

	"github.com/hitoshi/taskauth/internal/auth"
	"github.com/hitoshi/taskauth/internal/model"
	"github.com/hitoshi/taskauth/internal/task"
	"github.com/hitoshi/taskauth/internal/user"
)

// AuthServiceAdapter は auth.Service を AuthServiceInterface に適合させるアダプタ。
type AuthServiceAdapter struct {
	svc *auth.Service
}

// NewAuthServiceAdapter はAuthServiceAdapterを生成する。
func NewAuthServiceAdapter(svc *auth.Service) *AuthServiceAdapter {
	return &AuthServiceAdapter{svc: svc}
}

// Login はログインしhandlerレスポンス型で返す。
func (a *AuthServiceAdapter) Login(ctx context.Context, email, password string) (*loginResult, error) {
	result, err := a.svc.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &loginResult{
		Token: result.Token,
		User:  toUserResponse(result.User),
	}, nil
}

// Logout はトークンを無効化する。
func (a *AuthServiceAdapter) Logout(ctx context.Context, token string) error {
	return a.svc.Logout(ctx, token)
}

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// Register はユーザーを登録しhandlerレスポンス型で返す。
func (a *UserServiceAdapter) Register(ctx context.Context, username, email, password string) (*userResponse, error) {
	u, err := a.svc.Register(ctx, user.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

// Get はユーザーを取得しhandlerレスポンス型で返す。
func (a *UserServiceAdapter) Get(ctx context.Context, userID string) (*userResponse, error) {
	u, err := a.svc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

// TaskServiceAdapter は task.Service を TaskServiceInterface に適合させるアダプタ。
type TaskServiceAdapter struct {
	svc *task.Service
}

// NewTaskServiceAdapter はTaskServiceAdapterを生成する。
func NewTaskServiceAdapter(svc *task.Service) *TaskServiceAdapter {
	return &TaskServiceAdapter{svc: svc}
}

// Create はタスクを作成しhandlerレスポンス型で返す。
func (a *TaskServiceAdapter) Create(ctx context.Context, actor, text string) (*taskResponse, error) {
	t, err := a.svc.Create(ctx, actor, text)
	if err != nil {
		return nil, err
	}
	resp := toTaskResponse(t)
	return &resp, nil
}

// List はタスク一覧をhandlerレスポンス型で返す。
func (a *TaskServiceAdapter) List(ctx context.Context) ([]taskResponse, error) {
	tasks, err := a.svc.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		results[i] = toTaskResponse(t)
	}
	return results, nil
}

// Update はタスクを更新しhandlerレスポンス型で返す。
func (a *TaskServiceAdapter) Update(ctx context.Context, actor, taskID, text string) (*taskResponse, error) {
	t, err := a.svc.Update(ctx, actor, taskID, text)
	if err != nil {
		return nil, err
	}
	resp := toTaskResponse(t)
	return &resp, nil
}

// Delete はタスクを論理削除する。
func (a *TaskServiceAdapter) Delete(ctx context.Context, actor, taskID string) error {
	return a.svc.Delete(ctx, actor, taskID)
}

// toUserResponse はドメインのUserをhandlerのレスポンス型に変換する。
// パスワードハッシュはここで落とす。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// toTaskResponse はドメインのTaskをhandlerのレスポンス型に変換する。
func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		TaskID:    t.ID,
		Task:      t.Task,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
		UpdatedBy: t.UpdatedBy,
		UpdatedAt: t.UpdatedAt,
		DeletedBy: t.DeletedBy,
		DeletedAt: t.DeletedAt,
	}
}

// --- compile-time interface checks ---

var _ AuthServiceInterface = (*AuthServiceAdapter)(nil)
var _ UserServiceInterface = (*UserServiceAdapter)(nil)
var _ TaskServiceInterface = (*TaskServiceAdapter)(nil)
