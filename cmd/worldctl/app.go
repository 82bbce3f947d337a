package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jlvsolutions/WorldCities-sub000/internal/logger"
	"github.com/jlvsolutions/WorldCities-sub000/internal/notify"
	"github.com/jlvsolutions/WorldCities-sub000/internal/session"
	"github.com/jlvsolutions/WorldCities-sub000/pkg/config"
	"github.com/jlvsolutions/WorldCities-sub000/sdk/client"
)

// app is what every command talks to: the API client, the session gate
// and the status reporter, all bound to one profile.
type app struct {
	cfg      config.Resolved
	client   *client.Client
	gate     *session.Gate
	store    session.ProfileStore
	reporter notify.Reporter
	logger   *zap.SugaredLogger

	// persisted is set when the session lives in the profile file.
	persisted bool

	closers []func()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Resolve(cmd)
	if err != nil {
		return nil, err
	}
	level, _ := cmd.Root().PersistentFlags().GetString("log-level")
	l, err := logger.New(level, "console")
	if err != nil {
		return nil, err
	}
	logger.Set(l)

	a := &app{cfg: cfg, logger: l, store: session.ProfileStore{Profile: cfg.Profile}}
	opts := []client.Option{
		client.WithLogger(l),
		client.WithTokenSource(func() string { return a.gate.Token() }),
		client.WithUnauthorizedHandler(func(status int) { a.gate.HandleUnauthorized(status) }),
	}
	if cfg.Insecure {
		opts = append(opts, client.WithInsecure())
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, client.WithRateLimit(cfg.RateLimit, 1))
	}
	a.client = client.New(cfg.APIURL, opts...)
	a.gate = session.NewGate(a.client, session.WithLogger(l))
	a.closers = append(a.closers, a.gate.Close)

	stored, ok, err := a.store.Load()
	if err != nil {
		l.Warnw("load session", "err", err)
	}
	switch {
	case cfg.Token != "" && cfg.Token != stored.Token:
		// a token from flag or env is used as is and never written back
		a.gate.Adopt(session.Identity{Token: cfg.Token})
	default:
		if ok {
			a.gate.Adopt(stored)
		}
		unsub := session.Persist(a.gate, a.store)
		a.closers = append([]func(){unsub}, a.closers...)
		a.persisted = true
	}

	reporters := notify.Multi{notify.NewConsole(cmd.ErrOrStderr()), notify.LogReporter{Logger: l}}
	if n := cfg.Settings.Notify; n.RedisURL != "" {
		rr, err := notify.NewRedisReporter(notify.RedisConfig{Enabled: true, DSN: n.RedisURL, Channel: n.Channel})
		if err != nil {
			l.Warnw("redis status channel disabled", "err", err)
		} else {
			rr.Logger = l
			reporters = append(reporters, rr)
			a.closers = append(a.closers, func() { _ = rr.Close() })
		}
	}
	a.reporter = reporters
	return a, nil
}

// fail reports err the way a view would and returns it for cobra.
func (a *app) fail(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	a.reporter.Report(ctx, notify.FromError(err))
	return errReported
}

func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
	_ = a.logger.Sync()
}
