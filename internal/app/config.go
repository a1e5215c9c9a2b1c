// Package app builds the search stack out of configuration, it is shared by the server and the cli.
package app

import (
	"os"
	"time"

	"hephix-backend/internal/components/telemetry"
	"hephix-backend/internal/components/workpool"
	"hephix-backend/internal/scrapers/darel"
	"hephix-backend/internal/scrapers/depo"
	"hephix-backend/internal/server"
	"hephix-backend/internal/session"
	"hephix-backend/internal/tools"
)

const (
	DefaultListenPort = 8000

	ENV_CORS_ORIGINS = "CORS_ORIGINS"
	ENV_DAREL_COOKIE = "DAREL_COOKIE"
)

type DepoConfig struct {
	Endpoint string `json:"endpoint"`
	// Strategy is "graphql" (default) or "html".
	Strategy          string  `json:"strategy"`
	SearchPage        string  `json:"search_page"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

type DarelConfig struct {
	BaseUrl    string `json:"base_url"`
	SearchPath string `json:"search_path"`
	// Cookie is a `Cookie` header value used instead of a browser session, DAREL_COOKIE overrides it.
	Cookie            string  `json:"cookie"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

type SessionConfig struct {
	Disabled              bool   `json:"disabled"`
	TtlMinutes            int    `json:"ttl_minutes"`
	AcquireTimeoutSeconds int    `json:"acquire_timeout_seconds"`
	SettleSeconds         int    `json:"settle_seconds"`
	Headful               bool   `json:"headful"`
	BrowserBin            string `json:"browser_bin"`
	NoSandbox             bool   `json:"no_sandbox"`
}

type WorkersConfig struct {
	Size                int `json:"size"`
	QueueTimeoutSeconds int `json:"queue_timeout_seconds"`
}

type Config struct {
	ListenPort int `json:"listen_port"`
	// CorsOrigins is a comma separated origin list, CORS_ORIGINS overrides it.
	CorsOrigins string        `json:"cors_origins"`
	Depo        DepoConfig    `json:"depo"`
	Darel       DarelConfig   `json:"darel"`
	Session     SessionConfig `json:"session"`
	Workers     WorkersConfig `json:"workers"`
	// Telemetry configures otlp export, it stays local when unset.
	Telemetry *telemetry.OtelConfig `json:"telemetry"`
}

// ApplyEnv overrides config values with the environment variables that are set.
func (c *Config) ApplyEnv() {
	if origins, ok := os.LookupEnv(ENV_CORS_ORIGINS); ok {
		c.CorsOrigins = origins
	}
	if cookie, ok := os.LookupEnv(ENV_DAREL_COOKIE); ok && cookie != "" {
		c.Darel.Cookie = cookie
	}
}

func (c Config) Port() int {
	if c.ListenPort <= 0 {
		return DefaultListenPort
	}
	return c.ListenPort
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c Config) depoOptions() depo.Options {
	return depo.Options{
		Endpoint:          c.Depo.Endpoint,
		SearchPage:        c.Depo.SearchPage,
		RequestsPerSecond: c.Depo.RequestsPerSecond,
	}
}

func (c Config) darelOptions() darel.Options {
	return darel.Options{
		BaseUrl:           c.Darel.BaseUrl,
		SearchPath:        c.Darel.SearchPath,
		RequestsPerSecond: c.Darel.RequestsPerSecond,
	}
}

func (c Config) sessionOptions() session.Options {
	return session.Options{
		TTL:            time.Duration(c.Session.TtlMinutes) * time.Minute,
		AcquireTimeout: seconds(c.Session.AcquireTimeoutSeconds),
	}
}

func (c Config) rodOptions() session.RodOptions {
	baseUrl := c.Darel.BaseUrl
	if baseUrl == "" {
		baseUrl = darel.DefaultBaseUrl
	}
	return session.RodOptions{
		Url:       baseUrl,
		Headless:  !c.Session.Headful,
		Bin:       c.Session.BrowserBin,
		NoSandbox: c.Session.NoSandbox,
		Settle:    seconds(c.Session.SettleSeconds),
	}
}

func (c Config) serverOptions() server.Options {
	return server.Options{
		CorsOrigins: server.ParseOrigins(c.CorsOrigins),
		Mcp:         tools.SET_ALL.Manifest(),
	}
}

func (c Config) pool(tel telemetry.API) *workpool.Pool {
	return workpool.New(c.Workers.Size, seconds(c.Workers.QueueTimeoutSeconds), tel)
}
