package session

import "errors"

// ErrCookieTransport はCookieの読み書き失敗を表す。
// ストア障害（kv.ErrUnavailable）とはユーザーへの案内が異なるため区別する。
var ErrCookieTransport = errors.New("cookie transport failed")
