package cookie

import "sync"

// Jar はインメモリのCookies実装。
// テストおよびHTTPを介さないセッション操作の検証で使用する。
type Jar struct {
	mu      sync.Mutex
	cookies map[string]string
}

// NewJar は空のJarを生成する。
func NewJar() *Jar {
	return &Jar{cookies: make(map[string]string)}
}

// Get は指定名のCookieを返す。
func (j *Jar) Get(name string) (Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	value, ok := j.cookies[name]
	if !ok || value == "" {
		return Cookie{}, false
	}
	return Cookie{Name: name, Value: value}, true
}

// Set はCookieを保存する。属性はインメモリでは保持しない。
func (j *Jar) Set(name, value string, _ Options) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[name] = value
	return nil
}

// Delete は指定名のCookieを削除する。
func (j *Jar) Delete(name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.cookies, name)
	return nil
}

// compile-time interface check
var _ Cookies = (*Jar)(nil)
