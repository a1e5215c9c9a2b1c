package session

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"hephix-backend/internal/components/assert"
	"hephix-backend/internal/components/chrono"
	"hephix-backend/internal/components/telemetry"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL            = time.Minute * 30
	DefaultAcquireTimeout = time.Second * 45
)

const (
	report_manager_acquire     = "manager.acquire"
	report_manager_acquisition = "manager.acquisitions"
)

type Options struct {
	// TTL is how long an acquired credential is reused, defaults to DefaultTTL.
	TTL time.Duration
	// AcquireTimeout bounds a single acquisition, defaults to DefaultAcquireTimeout.
	AcquireTimeout time.Duration
}

// Manager lazily acquires a credential and hands it out until it expires.
//
// The credential is either absent or valid until its expiry, it is swapped atomically so readers
// never need to lock. Concurrent callers that find no valid credential share one acquisition.
type Manager struct {
	acquirer       Acquirer
	clock          chrono.API
	tel            telemetry.API
	ttl            time.Duration
	acquireTimeout time.Duration

	current      atomic.Pointer[Credential]
	group        singleflight.Group
	acquisitions atomic.Int64
}

func NewManager(acquirer Acquirer, clock chrono.API, opts Options, tel telemetry.API) *Manager {
	assert.NotNil(acquirer, "acquirer")
	assert.NotNil(clock, "clock")
	assert.NotNil(tel, "tel")

	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = DefaultAcquireTimeout
	}

	return &Manager{
		acquirer:       acquirer,
		clock:          clock,
		tel:            telemetry.NewScopedAPI("session", tel),
		ttl:            opts.TTL,
		acquireTimeout: opts.AcquireTimeout,
	}
}

func (m *Manager) cached() (Credential, bool) {
	cred := m.current.Load()
	if cred == nil || !m.clock.Now().Before(cred.ExpiresAt()) {
		return Credential{}, false
	}
	return *cred, true
}

func (m *Manager) acquire(ctx context.Context) (*Credential, error) {
	// another caller may have finished an acquisition while this one waited to enter the group
	if cred, ok := m.cached(); ok {
		return &cred, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.acquireTimeout)
	defer cancel()

	m.tel.ReportCount(report_manager_acquisition, m.acquisitions.Add(1))
	cookies, err := m.acquirer.Acquire(ctx)
	if err == nil && len(cookies) == 0 {
		err = errors.New("session: acquirer returned no cookies")
	}
	if err != nil {
		m.current.Store(nil)
		if !errors.Is(err, ErrDisabled) {
			m.tel.ReportWarning(report_manager_acquire, err)
		}
		return nil, err
	}

	cred := &Credential{
		Cookies:    cookies,
		AcquiredAt: m.clock.Now(),
		TTL:        m.ttl,
	}
	m.current.Store(cred)
	m.tel.ReportDebug(report_manager_acquire, len(cookies), cred.ExpiresAt())
	return cred, nil
}

// Credential returns the current credential, acquiring one if there is none or it expired.
// Acquisition failures are reported and result in ok=false, the caller is expected to continue
// without a credential.
func (m *Manager) Credential(ctx context.Context) (Credential, bool) {
	if cred, ok := m.cached(); ok {
		return cred, true
	}

	// the acquisition is shared, a caller giving up must not cancel it for the others
	ch := m.group.DoChan("acquire", func() (any, error) {
		return m.acquire(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, false
		}
		return *res.Val.(*Credential), true
	case <-ctx.Done():
		return Credential{}, false
	}
}

// Cookies returns the current credential's cookies, nil if there is no credential.
func (m *Manager) Cookies(ctx context.Context) []*http.Cookie {
	cred, ok := m.Credential(ctx)
	if !ok {
		return nil
	}
	return cred.HttpCookies()
}

// Invalidate drops the current credential, the next caller acquires a new one.
func (m *Manager) Invalidate() {
	m.current.Store(nil)
}
