package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid は署名不一致・形式不正のトークンを表す。
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired は署名上の有効期限を過ぎたトークンを表す。
	ErrTokenExpired = errors.New("token expired")
)

// Claims はトークンに埋め込むクレーム。
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer はHS256署名のトークンを発行・検証する。
// ストアにはアクセスしない。
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer はJWTIssuerを生成する。
func NewJWTIssuer(secret []byte, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL はトークンの有効期間を返す。
func (i *JWTIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue はuserIDとemailを含む署名済みトークンを発行する。
// 同一秒内の複数ログインでもトークン文字列が衝突しないようjtiを付与する。
func (i *JWTIssuer) Issue(userID, email string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify は署名と有効期限のみを検証し、クレームを返す。
// 署名は正しいが期限切れの場合は、デコード済みのクレームとErrTokenExpiredをラップしたエラーを返す。
// それ以外の失敗はnilとErrTokenInvalidをラップしたエラーを返す。
func (i *JWTIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// golang-jwtは署名検証の後にクレームを検証するため、期限切れは署名が正しいことを意味する
		if errors.Is(err, jwt.ErrTokenExpired) && claims.UserID != "" {
			return claims, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
