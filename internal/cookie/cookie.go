// Package cookie はホストHTTPランタイムのCookie APIとセッションロジックを
// 分離する変換レイヤーを提供する。セッション管理側はこのパッケージの
// Cookiesインターフェースのみに依存し、net/http以外のランタイムでも動作できる。
package cookie

import (
	"errors"
	"net/http"
	"time"
)

// SameSite はCookieのSameSite属性を表す。
type SameSite string

const (
	SameSiteLax    SameSite = "lax"
	SameSiteStrict SameSite = "strict"
	SameSiteNone   SameSite = "none"
)

// Options はCookie設定時の属性。
// 与えられた属性はすべて下位トランスポートへ転送されなければならない。
// 属性を黙って落とすアダプタ実装は不正である。
type Options struct {
	HTTPOnly bool
	Secure   bool
	Path     string
	Expires  time.Time // 絶対期限
	SameSite SameSite
}

// Cookie は取得したCookieの名前と値。
type Cookie struct {
	Name  string
	Value string
}

// Cookies はセッションロジックが必要とするCookie操作のインターフェース。
// ビジネスロジックを持たない純粋な変換レイヤーとして実装すること。
type Cookies interface {
	// Get は指定名のCookieを返す。存在しない場合はok=false。
	Get(name string) (Cookie, bool)
	// Set はCookieを設定する。書き込みできない場合はエラーを返す。
	Set(name, value string, opts Options) error
	// Delete は指定名のCookieを削除する。
	Delete(name string) error
}

// httpCookies はnet/httpのリクエスト/レスポンスに対するCookies実装。
type httpCookies struct {
	r *http.Request
	w http.ResponseWriter
}

// NewHTTP はnet/http用のCookiesアダプタを生成する。
func NewHTTP(w http.ResponseWriter, r *http.Request) Cookies {
	return &httpCookies{r: r, w: w}
}

// Get はリクエストからCookieを読み取る。
func (c *httpCookies) Get(name string) (Cookie, bool) {
	ck, err := c.r.Cookie(name)
	if err != nil || ck.Value == "" {
		return Cookie{}, false
	}
	return Cookie{Name: ck.Name, Value: ck.Value}, true
}

// Set はレスポンスにSet-Cookieヘッダーを書き込む。
// Optionsの全属性をhttp.Cookieへ変換する。
func (c *httpCookies) Set(name, value string, opts Options) error {
	if c.w == nil {
		return errors.New("cookie: response writer is not available")
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Expires:  opts.Expires,
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: toHTTPSameSite(opts.SameSite),
	})
	return nil
}

// Delete は期限切れのCookieを書き込むことで削除を指示する。
func (c *httpCookies) Delete(name string) error {
	if c.w == nil {
		return errors.New("cookie: response writer is not available")
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return nil
}

func toHTTPSameSite(s SameSite) http.SameSite {
	switch s {
	case SameSiteStrict:
		return http.SameSiteStrictMode
	case SameSiteNone:
		return http.SameSiteNoneMode
	case SameSiteLax:
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// compile-time interface check
var _ Cookies = (*httpCookies)(nil)
