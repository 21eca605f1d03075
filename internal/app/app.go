// Package app wires configuration, logging, the GitHub source, the Discord
// sink, optional storage, and the relay loop into one process lifecycle.
package app

import (
	"context"
	"time"

	"ghrelay/internal/config"
	"ghrelay/internal/discord"
	"ghrelay/internal/eventbus"
	"ghrelay/internal/github"
	"ghrelay/internal/observability/pprof"
	"ghrelay/internal/relay"
	rtsup "ghrelay/internal/runtime/supervisor"
	"ghrelay/internal/storage"
	"ghrelay/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	source *github.Client
	sink   *discord.Adapter
	relay  *relay.Service
	pprof  *pprof.Service
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	dcfg, err := mapDiscordConfig(cfg)
	if err != nil {
		return nil, err
	}
	sink, err := discord.New(dcfg, log.With(logx.String("comp", "discord")))
	if err != nil {
		return nil, err
	}
	// Warn+ records can now be mirrored into the channel.
	logSvc.SetMirror(sink)

	gcfg, err := mapGitHubConfig(cfg)
	if err != nil {
		return nil, err
	}
	source, err := github.NewClient(gcfg, log.With(logx.String("comp", "github")))
	if err != nil {
		return nil, err
	}

	bus := eventbus.New()

	var store storage.Store
	if sc, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if sc.Driver != "" {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		if store != nil {
			log.Info("delivery history enabled", logx.String("driver", sc.Driver))
		}
	}

	rcfg, err := mapRelayConfig(cfg)
	if err != nil {
		return nil, err
	}
	relaySvc := relay.New(rcfg, source, sink, log.With(logx.String("comp", "relay")), bus)
	// Command surface (!check, !status) drives the relay through the adapter.
	sink.BindRelay(relaySvc)

	pprofSvc := pprof.New(mapPprofConfig(cfg), log.With(logx.String("comp", "pprof")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		source:  source,
		sink:    sink,
		relay:   relaySvc,
		pprof:   pprofSvc,
	}, nil
}

// Done is closed when the supervisor context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	// Transactional config reload: validate before commit/publish.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateConfig(cfg)
	})

	if err := a.sink.Start(a.sup.Context()); err != nil {
		a.sup.Cancel()
		return err
	}
	if err := a.pprof.Start(a.sup.Context()); err != nil {
		a.sup.Cancel()
		return err
	}

	// The relay blocks on the Discord ready event before its first check;
	// run it supervised so a ready timeout surfaces as a fatal error.
	a.sup.Go("relay", func(ctx context.Context) error {
		return a.relay.Start(ctx)
	})

	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go("config.apply", a.applyLoop)
	if a.store != nil {
		a.sup.Go("history", a.historyLoop)
	}

	return nil
}

// historyLoop appends a delivery record for every relay.delivered bus event.
// Best-effort: a failed append is logged and the event dropped; history is an
// operator convenience, never part of the dedup state.
func (a *App) historyLoop(ctx context.Context) error {
	ch, unsub := a.bus.Subscribe(32)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if ev.Type != eventbus.EventDelivered {
				continue
			}
			d, ok := ev.Data.(relay.DeliveryEvent)
			if !ok {
				continue
			}
			cctx, cancel := context.WithTimeout(ctx, time.Second)
			err := a.store.AppendDelivery(cctx, storage.DeliveryEntry{
				At:             ev.Time,
				NotificationID: d.ID,
				Repository:     d.Repository,
				SubjectType:    d.SubjectType,
				Reason:         d.Reason,
				Title:          d.Title,
				Link:           d.Link,
			})
			cancel()
			if err != nil {
				a.log.Debug("history append failed", logx.String("id", d.ID), logx.Err(err))
			}
		}
	}
}

// applyLoop applies hot-reloaded config to the running services. Logging and
// relay tunables take effect immediately; a changed check interval needs a
// restart (the cron schedule is fixed at Start) and is only logged.
func (a *App) applyLoop(ctx context.Context) error {
	ch := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(ch)

	prev, err := mapRelayConfig(a.cfgm.Get())
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-ch:
			if !ok {
				return nil
			}
			a.logs.Apply(mapLogConfig(cfg))

			rcfg, err := mapRelayConfig(cfg)
			if err != nil {
				// Validator should have rejected this already.
				a.log.Warn("reloaded config rejected", logx.Err(err))
				continue
			}
			if rcfg.CheckInterval != prev.CheckInterval {
				a.log.Warn("relay.check_interval changed; restart required to take effect",
					logx.Duration("current", prev.CheckInterval),
					logx.Duration("new", rcfg.CheckInterval))
				rcfg.CheckInterval = prev.CheckInterval
			}
			a.relay.Apply(rcfg)
			prev = rcfg
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	// Stop the timer first so no new tick starts, then tear down outward-in.
	if err := a.relay.Stop(ctx); err != nil {
		a.log.Warn("relay stop timed out; abandoning in-flight check", logx.Err(err))
	}
	_ = a.pprof.Stop(ctx)
	_ = a.sink.Stop(ctx)
	if a.store != nil {
		_ = a.store.Close()
	}

	if a.sup != nil {
		a.sup.Cancel()
		_ = a.sup.Wait(ctx)
	}
	_ = a.logs.Close()
	return nil
}
