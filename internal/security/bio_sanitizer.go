// Package security は入力コンテンツの無害化を提供する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// BioSanitizer はプロフィール自己紹介文からHTMLをすべて除去する。
// 自己紹介文は他ユーザーのページに表示されるため、保存前に必ず通すこと。
type BioSanitizer struct {
	policy *bluemonday.Policy
}

// NewBioSanitizer はBioSanitizerを生成する。
// StrictPolicyはすべてのHTMLタグと属性を除去する。
func NewBioSanitizer() *BioSanitizer {
	return &BioSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
func (s *BioSanitizer) Sanitize(bio string) string {
	return strings.TrimSpace(s.policy.Sanitize(bio))
}
