package session

import (
	"context"
	"errors"
	"net/http"
)

// StaticAcquirer hands out cookies parsed from a `Cookie` header value, it lets an operator paste a
// clearance obtained elsewhere.
type StaticAcquirer struct {
	cookies []Cookie
}

func NewStaticAcquirer(header string) StaticAcquirer {
	req := http.Request{Header: http.Header{"Cookie": {header}}}

	var cookies []Cookie
	for _, c := range req.Cookies() {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return StaticAcquirer{cookies: cookies}
}

func (a StaticAcquirer) Acquire(context.Context) ([]Cookie, error) {
	if len(a.cookies) == 0 {
		return nil, errors.New("session: static cookie header has no cookies")
	}
	out := make([]Cookie, len(a.cookies))
	copy(out, a.cookies)
	return out, nil
}
