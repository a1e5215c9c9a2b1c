package app

import (
	"net/http"
	"strings"

	"hephix-backend/internal/components/chrono"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/internal/scrapers/darel"
	"hephix-backend/internal/scrapers/depo"
	"hephix-backend/internal/search"
	"hephix-backend/internal/server"
	"hephix-backend/internal/session"
)

// App is the assembled search stack.
type App struct {
	Sessions   *session.Manager
	Aggregator *search.Aggregator
	Metrics    *server.Metrics
	Server     *server.Server
}

// NewAcquirer picks how darel credentials are obtained: a configured cookie header wins over the
// browser, a disabled session never acquires anything.
func NewAcquirer(cfg Config) session.Acquirer {
	switch {
	case strings.TrimSpace(cfg.Darel.Cookie) != "":
		return session.NewStaticAcquirer(cfg.Darel.Cookie)
	case cfg.Session.Disabled:
		return session.NoopAcquirer{}
	}
	return session.NewRodAcquirer(cfg.rodOptions())
}

func NewSessions(cfg Config, tel telemetry.API) *session.Manager {
	return session.NewManager(NewAcquirer(cfg), chrono.NewStandardImpl(), cfg.sessionOptions(), tel)
}

// New wires every component described by cfg.
func New(cfg Config, tel telemetry.API) (App, error) {
	depoFetcher, err := depo.NewFetcher(cfg.Depo.Strategy, cfg.depoOptions(), tel)
	if err != nil {
		return App{}, err
	}

	sessions := NewSessions(cfg, tel)
	var credentials darel.CredentialSource = sessions
	if cfg.Session.Disabled && strings.TrimSpace(cfg.Darel.Cookie) == "" {
		credentials = nil
	}
	darelFetcher, err := darel.NewFetcher(cfg.darelOptions(), credentials, tel)
	if err != nil {
		return App{}, err
	}

	metrics := server.NewMetrics()
	aggregator := search.NewAggregator(
		depoFetcher,
		darelFetcher,
		cfg.pool(tel),
		metrics.ObserveSource,
		tel,
	)

	return App{
		Sessions:   sessions,
		Aggregator: aggregator,
		Metrics:    metrics,
		Server:     server.NewServer(aggregator, metrics, cfg.serverOptions(), tel),
	}, nil
}

// Handler is the http handler of the assembled server.
func (a App) Handler() http.Handler {
	return a.Server.Handler()
}
