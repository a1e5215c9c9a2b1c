// Package session keeps the anti-bot clearance used to search darel.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrDisabled is returned by acquirers that never produce a credential.
var ErrDisabled = errors.New("session: acquisition disabled")

type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// Credential is an immutable set of cookies, a new Credential replaces the old one as a whole.
type Credential struct {
	Cookies    []Cookie
	AcquiredAt time.Time
	TTL        time.Duration
}

func (c Credential) ExpiresAt() time.Time {
	return c.AcquiredAt.Add(c.TTL)
}

func (c Credential) HttpCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(c.Cookies))
	for _, cookie := range c.Cookies {
		out = append(out, &http.Cookie{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: cookie.Domain,
			Path:   cookie.Path,
		})
	}
	return out
}

// Acquirer produces a fresh set of cookies, it is expected to be slow.
type Acquirer interface {
	Acquire(ctx context.Context) ([]Cookie, error)
}

// NoopAcquirer is used when acquisition is turned off in configuration.
type NoopAcquirer struct{}

func (NoopAcquirer) Acquire(context.Context) ([]Cookie, error) {
	return nil, ErrDisabled
}
