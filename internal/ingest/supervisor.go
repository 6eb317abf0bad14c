// Package ingest runs the concurrent ingestion group: a polled bank feed
// streamed through session-scoped dedup, plus passive SMS and email
// listeners, supervised with restart-on-failure semantics.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerfeed/internal/core"
	"ledgerfeed/internal/export"
	"ledgerfeed/internal/ledger"
	"ledgerfeed/internal/log"
	"ledgerfeed/internal/parser"
)

// State is the supervisor lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateStopped  State = "stopped"
)

// Config holds supervisor configuration.
type Config struct {
	// PollInterval is the pause between poll cycles (default: 60s).
	PollInterval time.Duration

	// RestartBackoff is the base delay before restarting the task group
	// after an unexpected failure (default: 1s). The delay doubles per
	// consecutive failure up to RestartBackoffMax.
	RestartBackoff time.Duration

	// RestartBackoffMax caps the backoff curve (default: 30s).
	RestartBackoffMax time.Duration

	// MaxRestarts bounds consecutive restart attempts; 0 means unbounded
	// (default). When exceeded the supervisor gives up and stops.
	MaxRestarts int
}

// DefaultConfig returns the defaults used when a field is zero.
func DefaultConfig() Config {
	return Config{
		PollInterval:      60 * time.Second,
		RestartBackoff:    1 * time.Second,
		RestartBackoffMax: 30 * time.Second,
		MaxRestarts:       0,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PollInterval == 0 {
		c.PollInterval = def.PollInterval
	}
	if c.RestartBackoff == 0 {
		c.RestartBackoff = def.RestartBackoff
	}
	if c.RestartBackoffMax == 0 {
		c.RestartBackoffMax = def.RestartBackoffMax
	}
	return c
}

// Validate rejects malformed configuration. These are fatal at
// construction and never retried.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval %v: must be positive", c.PollInterval)
	}
	if c.RestartBackoff <= 0 {
		return fmt.Errorf("invalid restart backoff %v: must be positive", c.RestartBackoff)
	}
	if c.RestartBackoffMax < c.RestartBackoff {
		return fmt.Errorf("invalid backoff cap %v: must be at least the base %v", c.RestartBackoffMax, c.RestartBackoff)
	}
	if c.MaxRestarts < 0 {
		return fmt.Errorf("invalid max restarts %d: must be zero or positive", c.MaxRestarts)
	}
	return nil
}

// Supervisor owns the lifecycle of the poll stream and the two passive
// listeners. On any member's unexpected failure it logs, waits out a
// backoff delay, and recreates the whole group; the deduplicator survives
// restarts so candidates delivered before a crash are not re-delivered.
type Supervisor struct {
	cfg     Config
	source  PolledSource
	parser  *parser.Parser
	ledger  *ledger.Ledger
	archive export.TransactionWriter // optional, best effort

	dedup *Deduplicator

	mu       sync.Mutex
	state    State
	restarts int
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSupervisor wires a supervisor. The archive writer may be nil. A
// malformed config is rejected here, before anything runs.
func NewSupervisor(cfg Config, source PolledSource, p *parser.Parser, l *ledger.Ledger, archive export.TransactionWriter) (*Supervisor, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("supervisor config: %w", err)
	}
	if source == nil {
		return nil, errors.New("supervisor config: polled source is required")
	}
	if p == nil {
		return nil, errors.New("supervisor config: parser is required")
	}
	if l == nil {
		return nil, errors.New("supervisor config: ledger is required")
	}
	return &Supervisor{
		cfg:     cfg,
		source:  source,
		parser:  p,
		ledger:  l,
		archive: archive,
		dedup:   NewDeduplicator(),
		state:   StateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Restarts returns how many restart cycles have run so far.
func (s *Supervisor) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

// Start transitions to Running and launches the supervised group. It
// returns an error if the supervisor is already running.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateRunning || s.state == StateStopping {
		s.mu.Unlock()
		return fmt.Errorf("supervisor is already running")
	}
	s.state = StateRunning
	s.restarts = 0
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Ingestion supervisor started",
		log.FieldOperation, log.OpStartup,
		"poll_interval", s.cfg.PollInterval,
		"restart_backoff", s.cfg.RestartBackoff,
		"max_restarts", s.cfg.MaxRestarts)

	return nil
}

// Stop signals the group to exit and waits for it to drain. Shutdown is
// cooperative only: a task blocked inside the external source delays it
// until its next suspension point.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	s.mu.Unlock()

	close(s.stopCh)

	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Ingestion supervisor stopped", log.FieldOperation, log.OpShutdown)
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Ingestion supervisor stop timed out", log.FieldOperation, log.OpShutdown)
		return ctx.Err()
	}
}

// HandleSMS processes an incoming SMS alert synchronously. Text that does
// not resolve to a transaction is dropped silently; not every message is
// an alert.
func (s *Supervisor) HandleSMS(text string) {
	s.handleAlert(text, "sms", s.parser.ParseSMS)
}

// HandleEmail processes an incoming email alert synchronously.
func (s *Supervisor) HandleEmail(text string) {
	s.handleAlert(text, "email", s.parser.ParseEmail)
}

func (s *Supervisor) handleAlert(text, channel string, parse func(string) *core.TransactionRecord) {
	rec := parse(text)
	if rec == nil {
		slog.Debug("Alert did not resolve to a transaction",
			log.FieldOperation, log.OpParse,
			log.FieldChannel, channel)
		return
	}
	s.deliver(context.Background(), *rec, channel)
}

// runLoop recreates the task group until stop is requested or the restart
// ceiling is hit.
func (s *Supervisor) runLoop(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		close(s.doneCh)
	}()

	for {
		err := s.runGroup(ctx)

		if s.stopRequested() || ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}

		s.mu.Lock()
		s.restarts++
		attempt := s.restarts
		s.mu.Unlock()

		if s.cfg.MaxRestarts > 0 && attempt > s.cfg.MaxRestarts {
			slog.Error("Ingestion group failed too many times, giving up",
				log.FieldError, err,
				log.FieldRestarts, attempt-1,
				"max_restarts", s.cfg.MaxRestarts)
			return
		}

		delay := backoffDelay(s.cfg.RestartBackoff, s.cfg.RestartBackoffMax, attempt)
		slog.Warn("Ingestion group failed, restarting",
			log.FieldOperation, log.OpRestart,
			log.FieldError, err,
			"attempt", attempt,
			log.FieldBackoff, delay)

		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// runGroup runs one generation of the three supervised tasks and blocks
// until the group exits.
func (s *Supervisor) runGroup(ctx context.Context) error {
	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Propagate the cooperative stop flag into this generation.
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-groupCtx.Done():
		}
	}()

	group, groupCtx := errgroup.WithContext(groupCtx)
	group.Go(func() error { return s.pollStream(groupCtx) })
	group.Go(func() error { return s.listen(groupCtx, "sms") })
	group.Go(func() error { return s.listen(groupCtx, "email") })
	return group.Wait()
}

// pollStream repeatedly fetches candidates, filters them through the
// deduplicator, and forwards new ones in source order. The first poll
// happens immediately, not one interval in.
func (s *Supervisor) pollStream(ctx context.Context) error {
	if err := s.pollOnce(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.pollOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Supervisor) pollOnce(ctx context.Context) error {
	candidates, err := s.source.FetchRecent(ctx)
	if err != nil {
		return fmt.Errorf("fetch recent candidates: %w", err)
	}

	forwarded := 0
	for _, rec := range candidates {
		key := KeyOf(rec)
		if s.dedup.Seen(key) {
			continue
		}
		s.dedup.Mark(key)
		s.deliver(ctx, rec, "poll")
		forwarded++
	}

	if forwarded > 0 {
		slog.DebugContext(ctx, "Forwarded polled candidates",
			log.FieldOperation, log.OpPoll,
			"fetched", len(candidates),
			"forwarded", forwarded,
			"seen_keys", s.dedup.Len())
	}
	return nil
}

// listen is a structural placeholder task for a passive channel. The real
// work arrives through HandleSMS/HandleEmail calls from the transport
// layer; the task only exists to be part of the supervised group and to
// observe cancellation.
func (s *Supervisor) listen(ctx context.Context, channel string) error {
	slog.DebugContext(ctx, "Listener idle", log.FieldChannel, channel)
	<-ctx.Done()
	return ctx.Err()
}

// deliver appends to the ledger and, when configured, mirrors the record
// into the archive. Archive failures are logged, never fatal.
func (s *Supervisor) deliver(ctx context.Context, rec core.TransactionRecord, origin string) {
	s.ledger.Append(rec)

	slog.DebugContext(ctx, "Transaction appended",
		log.FieldOperation, log.OpAppend,
		"origin", origin,
		log.FieldDate, rec.Date,
		log.FieldDescription, rec.Description,
		log.FieldAmount, rec.Amount.String(),
		log.FieldCurrency, rec.Currency)

	if s.archive == nil {
		return
	}
	if ref, err := s.archive.Append(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "Failed to archive transaction",
			"origin", origin,
			log.FieldDescription, rec.Description,
			log.FieldError, err)
	} else {
		slog.DebugContext(ctx, "Transaction archived", log.FieldArchiveRef, ref)
	}
}

func (s *Supervisor) stopRequested() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// backoffDelay doubles the base per consecutive failure, capped.
func backoffDelay(base, limit time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= limit {
			return limit
		}
	}
	if delay > limit {
		return limit
	}
	return delay
}
