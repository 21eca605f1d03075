// Package relay implements the poll loop: fetch the GitHub inbox on a timer,
// filter against the in-memory seen-set, deliver the remainder to Discord
// with pacing, then prune the set and advance the watermark.
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"ghrelay/internal/eventbus"
	"ghrelay/internal/github"
	"ghrelay/pkg/logx"
)

// Source is the notification inbox. It is the sole authority on which
// notifications exist; the relay never derives "new" from unread flags or
// timestamps, only from its own seen-set of delivered ids.
type Source interface {
	Fetch(ctx context.Context, onlyUnread bool, since time.Time) ([]github.Notification, error)
	ResolveLink(n github.Notification) string
}

// Sink delivers one rendered notification to the fixed destination channel.
type Sink interface {
	WaitReady(ctx context.Context) error
	Deliver(ctx context.Context, n github.Notification, link string) error
}

type Config struct {
	// CheckInterval is the poll cadence. Default 5m.
	CheckInterval time.Duration

	// Pace is the minimum spacing between two consecutive deliveries within
	// one check. Default 1s; 0 disables pacing.
	Pace time.Duration

	// OnlyUnread restricts fetches to unread items and enables since-watermark
	// narrowing.
	OnlyUnread bool

	// Seen-set bounds; zero values take the 1000/500 defaults.
	SeenMaxEntries int
	SeenPruneTo    int
}

func (c Config) withDefaults() Config {
	if c.CheckInterval <= 0 {
		c.CheckInterval = 5 * time.Minute
	}
	if c.Pace < 0 {
		c.Pace = 0
	}
	return c
}

// TickStats summarizes one completed check, published as eventbus data and
// kept for status reporting.
type TickStats struct {
	At        time.Time
	Fetched   int
	Delivered int
	Failed    int
	Pruned    int
	Duration  time.Duration
}

// DeliveryEvent is the eventbus payload for a single delivery attempt. It
// carries everything the history subscriber needs so consumers never reach
// back into the relay.
type DeliveryEvent struct {
	ID          string
	Repository  string
	SubjectType string
	Reason      string
	Title       string
	Link        string
	Error       string
}

// Service owns the poll loop. All tick state (seen-set, watermark) is mutated
// only inside the tick routine, and ticks never overlap, so that state needs
// no locking of its own.
type Service struct {
	source Source
	sink   Sink
	log    logx.Logger
	bus    eventbus.Bus

	cfgMu sync.Mutex
	cfg   Config

	// tickMu is the single-flight guard: cron uses SkipIfStillRunning, and
	// the manual/startup path uses TryLock, so two ticks can never run
	// concurrently against the seen-set.
	tickMu sync.Mutex

	// tick-owned state
	seen        *seenCache
	lastChecked time.Time

	lastMu   sync.Mutex
	lastTick TickStats

	cron *cron.Cron
}

func New(cfg Config, source Source, sink Sink, log logx.Logger, bus eventbus.Bus) *Service {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		source: source,
		sink:   sink,
		log:    log,
		bus:    bus,
		cfg:    cfg,
		seen:   newSeenCache(cfg.SeenMaxEntries, cfg.SeenPruneTo),
	}
}

// Apply updates runtime tunables. The poll cadence itself is fixed at Start;
// an interval change requires a restart and is logged by the caller.
func (s *Service) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	// Limits are read inside the tick; the cache itself is tick-owned, so the
	// new bounds take effect at the next prune.
}

func (s *Service) snapshot() Config {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	return s.cfg
}

// LastTick returns stats for the most recently completed check.
func (s *Service) LastTick() TickStats {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.lastTick
}

// Interval returns the current poll cadence.
func (s *Service) Interval() time.Duration {
	return s.snapshot().CheckInterval
}

// Start blocks until the sink is ready, runs one unconditional check, then
// arms the periodic timer. Overlapping timer fires are skipped, not queued.
func (s *Service) Start(ctx context.Context) error {
	if err := s.sink.WaitReady(ctx); err != nil {
		return err
	}

	cfg := s.snapshot()
	s.log.Info("relay started",
		logx.Duration("interval", cfg.CheckInterval),
		logx.Bool("only_unread", cfg.OnlyUnread))

	s.CheckNow(ctx)

	cl := cronLogger{log: s.log}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	c.Schedule(cron.Every(cfg.CheckInterval), cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		s.CheckNow(ctx)
	}))
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the timer and waits for an in-flight check up to ctx's deadline.
// Abandoning the in-flight batch loses at most that batch's seen-set update,
// which the no-persistence model already tolerates.
func (s *Service) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CheckNow runs one check if none is in flight; a concurrent check makes
// this a no-op (the next scheduled tick covers it).
func (s *Service) CheckNow(ctx context.Context) {
	if !s.tickMu.TryLock() {
		s.log.Debug("check already running; skipping")
		return
	}
	defer s.tickMu.Unlock()
	s.tick(ctx)
}

// tick is one fetch-filter-deliver-prune cycle. Every error is contained
// here: a fetch failure skips the whole tick, a delivery failure skips only
// that item. The next scheduled tick is the only retry mechanism.
func (s *Service) tick(ctx context.Context) {
	cfg := s.snapshot()
	s.seen.SetLimits(cfg.SeenMaxEntries, cfg.SeenPruneTo)

	start := time.Now()
	fetched, err := s.source.Fetch(ctx, cfg.OnlyUnread, s.lastChecked)
	if err != nil {
		// Leave all state untouched; the next tick retries naturally.
		s.log.Warn("inbox fetch failed", logx.Err(err))
		s.publish(eventbus.EventFetchFailed, DeliveryEvent{Error: err.Error()})
		return
	}
	// Watermark marks the last successful fetch. Taken from just before the
	// request so items updated mid-fetch are not missed next time.
	s.lastChecked = start

	stats := TickStats{At: start, Fetched: len(fetched)}

	// Pacing: burst 1, so the first send is immediate and no delay trails
	// the last item.
	var limiter *rate.Limiter
	if cfg.Pace > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Pace), 1)
	}

	for i := range fetched {
		n := fetched[i]
		// Checked and updated per item, so a duplicate id within one fetch
		// response is filtered by the in-progress update and never
		// double-delivered.
		if s.seen.Has(n.ID) {
			continue
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				s.log.Debug("check canceled mid-batch", logx.Err(err))
				break
			}
		}

		link := s.source.ResolveLink(n)
		if err := s.sink.Deliver(ctx, n, link); err != nil {
			// Not added to the seen-set: the next tick retries this item.
			stats.Failed++
			s.log.Error("delivery failed",
				logx.String("id", n.ID),
				logx.String("repo", n.Repository.FullName),
				logx.Err(err))
			s.publish(eventbus.EventDeliveryFailed, DeliveryEvent{
				ID: n.ID, Repository: n.Repository.FullName, Link: link, Error: err.Error(),
			})
			continue
		}

		s.seen.Add(n.ID)
		stats.Delivered++
		s.publish(eventbus.EventDelivered, DeliveryEvent{
			ID:          n.ID,
			Repository:  n.Repository.FullName,
			SubjectType: n.Subject.Type,
			Reason:      n.Reason,
			Title:       n.Subject.Title,
			Link:        link,
		})
	}

	stats.Pruned = s.seen.PruneIfOver()
	if stats.Pruned > 0 {
		s.log.Info("seen-set pruned",
			logx.Int("dropped", stats.Pruned),
			logx.Int("size", s.seen.Len()))
		s.publish(eventbus.EventSeenPruned, stats)
	}

	stats.Duration = time.Since(start)
	s.lastMu.Lock()
	s.lastTick = stats
	s.lastMu.Unlock()
	s.publish(eventbus.EventTick, stats)

	if stats.Delivered > 0 || stats.Failed > 0 {
		s.log.Info("check finished",
			logx.Int("fetched", stats.Fetched),
			logx.Int("delivered", stats.Delivered),
			logx.Int("failed", stats.Failed),
			logx.Duration("dur", stats.Duration))
	} else {
		s.log.Debug("check finished; nothing new",
			logx.Int("fetched", stats.Fetched),
			logx.Duration("dur", stats.Duration))
	}
}

func (s *Service) publish(typ string, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: data})
}

// cronLogger adapts logx to cron.Logger.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug("cron: "+msg, logx.Any("kv", kv))
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error("cron: "+msg, logx.Err(err), logx.Any("kv", kv))
}
