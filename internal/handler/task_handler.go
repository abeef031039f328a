package handler

import (
	"context"
	"net/http"
	"time"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	Create(ctx context.Context, actor, text string) (*taskResponse, error)
	List(ctx context.Context) ([]taskResponse, error)
	Update(ctx context.Context, actor, taskID, text string) (*taskResponse, error)
	Delete(ctx context.Context, actor, taskID string) error
}

// TaskHandler はタスクCRUDのHTTPハンドラー。
// 操作ユーザーとして認証済み主体のユーザー名を記録する。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{
		service: service,
	}
}

// taskResponse はタスクのレスポンス。未設定の更新・削除情報はnullになる。
type taskResponse struct {
	TaskID    string     `json:"task_id"`
	Task      string     `json:"task"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedBy *string    `json:"updated_by"`
	UpdatedAt *time.Time `json:"updated_at"`
	DeletedBy *string    `json:"deleted_by"`
	DeletedAt *time.Time `json:"deleted_at"`
}

type createTaskRequest struct {
	Task string `json:"task"`
}

type updateTaskRequest struct {
	TaskID  string `json:"taskId"`
	NewTask string `json:"newTask"`
}

type deleteTaskRequest struct {
	TaskID string `json:"taskId"`
}

// Create はタスクを作成する。
// POST /api/task/create
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), p.Username, req.Task)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// List は論理削除されていない全タスクを返す。
// GET /api/task/list
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}

	tasks, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []taskResponse{}
	}

	writeJSON(w, http.StatusOK, tasks)
}

// Update はタスク本文を更新する。
// PUT /api/task/update
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), p.Username, req.TaskID, req.NewTask)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete はタスクを論理削除する。
// DELETE /api/task/delete
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req deleteTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), p.Username, req.TaskID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}
