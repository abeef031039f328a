// Package auth はパスワード認証、トークン発行、トークン台帳による認可ゲートを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/taskauth/internal/metrics"
	"github.com/hitoshi/taskauth/internal/model"
	"github.com/hitoshi/taskauth/internal/repository"
)

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

// TokenIssuer は署名付きトークンの発行と検証のインターフェース。
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
	Verify(token string) (*Claims, error)
	TTL() time.Duration
}

// LoginResult はログイン成功時に返す発行済みトークンとユーザー。
type LoginResult struct {
	Token string
	User  *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	hasher    PasswordHasher
	issuer    TokenIssuer
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceを生成する。collectorはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		hasher:    hasher,
		issuer:    issuer,
		metrics:   collector,
		now:       time.Now,
	}
}

// Login はメールアドレスとパスワードを照合し、トークンを発行して台帳に記録する。
// 未登録のメールアドレスとパスワード不一致はどちらもInvalidCredentialsを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordFailure(metrics.ReasonUserNotFound)
		slog.Info("login rejected", slog.String("reason", metrics.ReasonUserNotFound))
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.recordFailure(metrics.ReasonInvalidPassword)
		slog.Info("login rejected",
			slog.String("reason", metrics.ReasonInvalidPassword),
			slog.String("user_id", user.ID),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	signed, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	token := &model.Token{
		Token:     signed,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.issuer.TTL()),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
		s.metrics.RecordTokenIssued()
	}
	slog.Info("user logged in", slog.String("user_id", user.ID))

	return &LoginResult{Token: signed, User: user}, nil
}

// Logout はトークンを無効化する。無効化済みのトークンでもエラーにしない。
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}
	if err := s.tokenRepo.Invalidate(ctx, token); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	slog.Info("user logged out")
	return nil
}

// Authenticate はトークンを検証し、認証済みの主体を返す。
// 署名検証、台帳の存在確認、無効化確認、有効期限確認の順に判定し、最初の失敗で打ち切る。
// 署名上の期限切れは台帳の確認まで進め、台帳の期限切れと同じく無効化してからTokenExpiredを返す。
func (s *Service) Authenticate(ctx context.Context, raw string) (*model.Principal, error) {
	claims, err := s.issuer.Verify(raw)
	signedExpired := errors.Is(err, ErrTokenExpired) && claims != nil
	if err != nil && !signedExpired {
		s.recordFailure(metrics.ReasonInvalidToken)
		slog.Debug("token verification failed", slog.String("error", err.Error()))
		return nil, model.NewInvalidTokenError()
	}

	rec, err := s.tokenRepo.FindWithUser(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	if rec == nil {
		s.recordFailure(metrics.ReasonTokenNotFound)
		return nil, model.NewTokenNotFoundError()
	}

	state := rec.MarkExpiredIfPast(s.now())
	if signedExpired && state == model.TokenActive {
		rec.IsValid = false
		state = model.TokenExpired
	}

	switch state {
	case model.TokenRevoked:
		s.recordFailure(metrics.ReasonTokenRevoked)
		slog.Info("token rejected",
			slog.String("user_id", rec.UserID),
			slog.String("state", state.String()),
		)
		return nil, model.NewTokenRevokedError()
	case model.TokenExpired:
		if err := s.tokenRepo.Invalidate(ctx, raw); err != nil {
			slog.Error("failed to revoke expired token",
				slog.String("user_id", rec.UserID),
				slog.String("error", err.Error()),
			)
		} else {
			slog.Info("token expired and revoked",
				slog.String("user_id", rec.UserID),
				slog.String("state", state.String()),
			)
		}
		s.recordFailure(metrics.ReasonTokenExpired)
		return nil, model.NewTokenExpiredError()
	}

	return &model.Principal{
		UserID:   claims.UserID,
		Email:    rec.Email,
		Username: rec.Username,
		Token:    raw,
	}, nil
}

func (s *Service) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordAuthFailure(reason)
	}
}
