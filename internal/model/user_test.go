package model

import (
	"testing"
	"time"
)

func TestToken_MarkExpiredIfPast(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		token     Token
		wantState TokenState
		wantValid bool
	}{
		{
			name:      "有効期限内の有効トークンはActive",
			token:     Token{IsValid: true, ExpiresAt: now.Add(time.Minute)},
			wantState: TokenActive,
			wantValid: true,
		},
		{
			name:      "無効化済みトークンはRevoked",
			token:     Token{IsValid: false, ExpiresAt: now.Add(time.Minute)},
			wantState: TokenRevoked,
			wantValid: false,
		},
		{
			name:      "期限切れかつ無効化済みはRevokedが優先される",
			token:     Token{IsValid: false, ExpiresAt: now.Add(-time.Minute)},
			wantState: TokenRevoked,
			wantValid: false,
		},
		{
			name:      "期限切れの有効トークンはExpiredに遷移する",
			token:     Token{IsValid: true, ExpiresAt: now.Add(-time.Second)},
			wantState: TokenExpired,
			wantValid: false,
		},
		{
			name:      "期限ちょうどはまだActive",
			token:     Token{IsValid: true, ExpiresAt: now},
			wantState: TokenActive,
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := tt.token
			got := tok.MarkExpiredIfPast(now)
			if got != tt.wantState {
				t.Errorf("MarkExpiredIfPast() = %v, want %v", got, tt.wantState)
			}
			if tok.IsValid != tt.wantValid {
				t.Errorf("IsValid = %v, want %v", tok.IsValid, tt.wantValid)
			}
		})
	}
}

// 期限切れ判定後の再判定はRevokedとなり、状態が変わり続けないことを検証する。
func TestToken_MarkExpiredIfPast_SecondCallIsRevoked(t *testing.T) {
	now := time.Now()
	tok := Token{IsValid: true, ExpiresAt: now.Add(-time.Hour)}

	if got := tok.MarkExpiredIfPast(now); got != TokenExpired {
		t.Fatalf("first call = %v, want %v", got, TokenExpired)
	}
	if got := tok.MarkExpiredIfPast(now); got != TokenRevoked {
		t.Errorf("second call = %v, want %v", got, TokenRevoked)
	}
}

func TestTokenState_String(t *testing.T) {
	if TokenActive.String() != "active" || TokenRevoked.String() != "revoked" || TokenExpired.String() != "expired" {
		t.Error("unexpected TokenState names")
	}
	if TokenState(99).String() != "unknown" {
		t.Error("unknown state should print as unknown")
	}
}

func TestTask_IsDeleted(t *testing.T) {
	task := &Task{ID: "t1"}
	if task.IsDeleted() {
		t.Error("new task should not be deleted")
	}
	now := time.Now()
	task.DeletedAt = &now
	if !task.IsDeleted() {
		t.Error("task with DeletedAt should be deleted")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewTaskNotFoundError()
	if err.Error() != "[TASK_NOT_FOUND] Task not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Kind != KindNotFound {
		t.Errorf("Kind = %v, want KindNotFound", err.Kind)
	}
}
