// Package password はパスワードのハッシュ化と検証を提供する。
// メモリハードなKDF（scrypt）とユーザーごとのランダムソルトにより、
// 事前計算辞書攻撃とオフライン総当たりに耐える設計。
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scryptパラメータ。導出1回が数百ミリ秒オーダーに収まる値。
// 変更すると既存ハッシュの検証ができなくなるため、変更時は再ハッシュ戦略が必要。
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	digestLength = 64 // 導出するダイジェスト長（バイト）
	saltLength   = 16 // ソルト長（バイト）
)

// GenerateSalt は暗号的に安全な乱数源から16バイトのソルトを生成し、
// hexエンコードして返す。ソルトはユーザーごとに一意で、生成後は不変。
func GenerateSalt() (string, error) {
	b := make([]byte, saltLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Hash はパスワードとソルトから64バイトのダイジェストを導出し、hexエンコードして返す。
// 同じ(password, salt)の組に対して常に同じ値を返す（決定的）。
// KDF計算自体の失敗のみエラーとなり、リトライはしない。
func Hash(password, salt string) (string, error) {
	digest, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, digestLength)
	if err != nil {
		return "", fmt.Errorf("failed to derive password hash: %w", err)
	}
	return hex.EncodeToString(digest), nil
}

// Compare はパスワードを再ハッシュし、期待値と定数時間で比較する。
// レスポンスレイテンシから部分一致情報が漏れるのを防ぐため、
// 短絡評価する等値比較は使用しない。
// 長さ不一致を含むあらゆる不一致でfalseを返し、誤ったパスワードでエラーにはならない。
func Compare(password, salt, expectedHash string) (bool, error) {
	computed, err := Hash(password, salt)
	if err != nil {
		return false, err
	}

	computedBytes, err := hex.DecodeString(computed)
	if err != nil {
		return false, fmt.Errorf("failed to decode computed hash: %w", err)
	}
	expectedBytes, err := hex.DecodeString(expectedHash)
	if err != nil {
		// 保存されたハッシュがhexとして不正な場合も不一致として扱う
		return false, nil
	}

	if len(computedBytes) != len(expectedBytes) {
		return false, nil
	}

	return subtle.ConstantTimeCompare(computedBytes, expectedBytes) == 1, nil
}
