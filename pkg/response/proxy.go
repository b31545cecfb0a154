package response

import (
	"net/http"
	"slices"
	"strings"
)

// Proxy collects headers and cookies from code that does not produce the
// final Response itself, such as an interceptor that lets the request
// continue. A Proxy belongs to one request and is never shared.
type Proxy struct {
	headers http.Header
	cookies []*http.Cookie
}

func NewProxy() *Proxy {
	return &Proxy{headers: make(http.Header)}
}

func (p *Proxy) SetHeader(key, value string) {
	p.headers.Set(key, value)
}

func (p *Proxy) AddHeader(key, value string) {
	p.headers.Add(key, value)
}

func (p *Proxy) GetHeader(key string) string {
	return p.headers.Get(key)
}

func (p *Proxy) GetHeaders(key string) []string {
	return p.headers.Values(key)
}

func (p *Proxy) SetCookie(cookie *http.Cookie) {
	p.cookies = append(p.cookies, cookie)
}

func (p *Proxy) GetCookies() []*http.Cookie {
	return p.cookies
}

func (p *Proxy) Empty() bool {
	return len(p.headers) == 0 && len(p.cookies) == 0
}

// ApplyTo copies the staged headers and cookies onto r. Headers the response
// already sets itself are kept. Proxy values are added after them.
func (p *Proxy) ApplyTo(r *Response) {
	if r == nil || p.Empty() {
		return
	}
	for k, vs := range p.headers {
		for _, v := range vs {
			r.AddHeader(k, v)
		}
	}
	merged := MergeProxies(&Proxy{cookies: p.cookies}, &Proxy{cookies: r.cookies})
	r.cookies = merged.cookies
}

type cookieWithIdx struct {
	idx    int
	cookie *http.Cookie
}

// MergeProxies merges in order. Headers accumulate. For cookies sharing a
// name the later one wins, keeping the position of its proxy.
func MergeProxies(proxies ...*Proxy) *Proxy {
	merged := NewProxy()

	for _, p := range proxies {
		for k, vs := range p.headers {
			merged.headers[k] = append(merged.headers[k], vs...)
		}
	}

	unique := make(map[string]*cookieWithIdx)
	for i, p := range proxies {
		for _, c := range p.cookies {
			unique[c.Name] = &cookieWithIdx{i, c}
		}
	}
	deduped := make([]*cookieWithIdx, 0, len(unique))
	for _, c := range unique {
		deduped = append(deduped, c)
	}
	slices.SortStableFunc(deduped, func(a, b *cookieWithIdx) int {
		if a.idx != b.idx {
			return a.idx - b.idx
		}
		return strings.Compare(a.cookie.Name, b.cookie.Name)
	})

	for _, c := range deduped {
		merged.cookies = append(merged.cookies, c.cookie)
	}
	return merged
}
