// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はタスク本文から全てのHTMLを除去し、プレーンテキストとして保存させる。
// 描画時のエスケープはクライアントの責務。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェース。
type TextSanitizer interface {
	// Sanitize は全てのタグを除去したプレーンテキストを返す。
	// script, styleなどの要素は内容ごと除去する。
	// &や"などの文字はエスケープせずそのまま残す。
	// 前後の空白は取り除く。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので共有して使う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はbluemondayのStrictPolicyでTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses はエンティティ化されたタグを剥がす最大回数。
const maxSanitizePasses = 4

// Sanitize は全てのタグを除去したプレーンテキストを返す。
// bluemondayの出力はエスケープ済みのため、アンエスケープしてからもう一度除去し、
// 結果が変わらなくなるまで繰り返す。
func (s *textSanitizer) Sanitize(raw string) string {
	text := raw
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(text))
		if next == text {
			return strings.TrimSpace(text)
		}
		text = next
	}
	// 収束しない入力はエスケープ済みの形で返す
	return strings.TrimSpace(s.policy.Sanitize(text))
}
