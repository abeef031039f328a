// Package task は認証済みユーザーが共有するタスクのCRUDを提供する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hitoshi/taskauth/internal/model"
	"github.com/hitoshi/taskauth/internal/repository"
	"github.com/hitoshi/taskauth/internal/security"
)

// Service はタスクのサービス層。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(taskRepo repository.TaskRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
	}
}

// Create はタスクを作成する。作成者として操作ユーザー名を記録する。
func (s *Service) Create(ctx context.Context, actor, text string) (*model.Task, error) {
	clean, err := s.cleanText(text)
	if err != nil {
		return nil, err
	}

	created, err := s.taskRepo.Create(ctx, &model.Task{
		ID:        uuid.New().String(),
		Task:      clean,
		CreatedBy: actor,
	})
	if err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	slog.Info("task created",
		slog.String("task_id", created.ID),
		slog.String("actor", actor),
	)
	return created, nil
}

// List は論理削除されていない全タスクを返す。ユーザーによる絞り込みは行わない。
func (s *Service) List(ctx context.Context) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Update はタスク本文を更新する。
// 存在確認と更新の間に削除された場合もTaskNotFoundを返す。
func (s *Service) Update(ctx context.Context, actor, taskID, text string) (*model.Task, error) {
	if taskID == "" {
		return nil, model.NewValidationError("taskId is required")
	}
	clean, err := s.cleanText(text)
	if err != nil {
		return nil, err
	}

	id, err := s.ensureActive(ctx, taskID)
	if err != nil {
		return nil, err
	}

	updated, err := s.taskRepo.Update(ctx, id, clean, actor)
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewTaskNotFoundError()
	}

	slog.Info("task updated",
		slog.String("task_id", id),
		slog.String("actor", actor),
	)
	return updated, nil
}

// Delete はタスクを論理削除する。
// 削除済みのタスクに対する2回目の削除はTaskNotFoundを返す。
func (s *Service) Delete(ctx context.Context, actor, taskID string) error {
	if taskID == "" {
		return model.NewValidationError("taskId is required")
	}

	id, err := s.ensureActive(ctx, taskID)
	if err != nil {
		return err
	}

	deleted, err := s.taskRepo.SoftDelete(ctx, id, actor)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewTaskNotFoundError()
	}

	slog.Info("task deleted",
		slog.String("task_id", id),
		slog.String("actor", actor),
	)
	return nil
}

// ensureActive はタスクが存在し論理削除されていないことを確認し、正規化したIDを返す。
// UUIDとして解釈できないIDは存在しないものとして扱う。
func (s *Service) ensureActive(ctx context.Context, taskID string) (string, error) {
	parsed, err := uuid.Parse(taskID)
	if err != nil {
		return "", model.NewTaskNotFoundError()
	}
	id := parsed.String()

	existing, err := s.taskRepo.FindActiveByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if existing == nil || existing.IsDeleted() {
		return "", model.NewTaskNotFoundError()
	}
	return id, nil
}

// cleanText は入力が空でないことを確認してからタグを除去する。
// タグのみの本文は受け付け、空文字列として保存する。
func (s *Service) cleanText(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", model.NewValidationError("Task text is required")
	}
	return s.sanitizer.Sanitize(text), nil
}
