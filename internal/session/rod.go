package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const DefaultSettle = time.Second * 3

type RodOptions struct {
	// Url is the page visited to obtain the clearance.
	Url      string
	Headless bool
	// Bin is the browser executable, rod downloads a chromium build when it is empty.
	Bin       string
	NoSandbox bool
	// Settle is how long to wait after the page loaded for challenge scripts to set their cookies,
	// defaults to DefaultSettle.
	Settle time.Duration
}

// RodAcquirer obtains cookies by loading a page in a real browser.
type RodAcquirer struct {
	opts RodOptions
}

func NewRodAcquirer(opts RodOptions) RodAcquirer {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	return RodAcquirer{opts: opts}
}

func (a RodAcquirer) Acquire(ctx context.Context) ([]Cookie, error) {
	l := launcher.New().Context(ctx).Headless(a.opts.Headless)
	if a.opts.Bin != "" {
		l = l.Bin(a.opts.Bin)
	}
	if a.opts.NoSandbox {
		l = l.NoSandbox(true)
	}

	controlUrl, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("session: launch browser: %w", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlUrl).Context(ctx)
	err = browser.Connect()
	if err != nil {
		return nil, fmt.Errorf("session: connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: a.opts.Url})
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", a.opts.Url, err)
	}
	err = page.WaitLoad()
	if err != nil {
		return nil, fmt.Errorf("session: wait for %s: %w", a.opts.Url, err)
	}

	select {
	case <-time.After(a.opts.Settle):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	raw, err := page.Cookies([]string{a.opts.Url})
	if err != nil {
		return nil, fmt.Errorf("session: read cookies: %w", err)
	}
	return fromNetworkCookies(raw), nil
}

func fromNetworkCookies(raw []*proto.NetworkCookie) []Cookie {
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		if c == nil || c.Name == "" {
			continue
		}
		cookies = append(cookies, Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	return cookies
}
