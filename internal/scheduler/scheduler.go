package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"EngulfSentinel/internal/collector"
	"EngulfSentinel/internal/entry"
	"EngulfSentinel/internal/executor"
	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/notifier"
	"EngulfSentinel/internal/recorder"
	"EngulfSentinel/internal/risk"
	"EngulfSentinel/internal/session"
	"EngulfSentinel/internal/strategy"
)

const executeTimeout = 10 * time.Second

// Options are the runtime settings the scheduler needs from config.
type Options struct {
	OrderLabel    string
	UseConfluence bool
	Session       session.Window
}

// Deps are the collaborators driven by the scheduler.
type Deps struct {
	Collector *collector.Collector
	Engine    *strategy.Engine
	Tracker   *entry.Tracker
	Sizer     *risk.Sizer
	Executor  executor.Executor
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Log       *zap.Logger
}

// Scheduler drives the two event kinds: bar close (full rescan) and quote
// tick (entry check). Handlers never overlap.
type Scheduler struct {
	Cron *cron.Cron
	Deps
	opts Options
	ctx  context.Context
	now  func() time.Time

	mu sync.Mutex // serializes OnBar and OnTick

	statusMu sync.Mutex
	lastScan time.Time
	lastErr  string
	entries  int

	wg sync.WaitGroup // in-flight notifications
}

// NewScheduler creates a new Scheduler. ctx bounds every cron-triggered run.
func NewScheduler(ctx context.Context, deps Deps, opts Options) *Scheduler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifier.NoopNotifier{}
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.Executor == nil {
		deps.Executor = executor.NewDryRunExecutor(deps.Log)
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger{deps.Log.Sugar()}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{deps.Log.Sugar()})),
		),
		Deps: deps,
		opts: opts,
		ctx:  ctx,
		now:  time.Now,
	}
}

// RegisterAll registers the bar-close and quote-poll tasks.
func (s *Scheduler) RegisterAll(barCron, quoteCron string) error {
	if _, err := s.Cron.AddFunc(barCron, func() { _ = s.OnBar(s.ctx) }); err != nil {
		return fmt.Errorf("register bar task: %w", err)
	}
	if _, err := s.Cron.AddFunc(quoteCron, func() { _, _ = s.OnTick(s.ctx) }); err != nil {
		return fmt.Errorf("register quote task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs and notifications.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.Log.Info("scheduler stopped")
}

// Wait blocks until queued notifications are delivered.
func (s *Scheduler) Wait() { s.wg.Wait() }

// OnBar runs a full rescan. Any failure clears the active combos so no entry
// fires on a stale set.
func (s *Scheduler) OnBar(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.Tracker.Snapshot()
	cycle := &recorder.ScanCycle{
		At:        s.now(),
		Symbol:    s.Collector.Symbol,
		Timeframe: s.Collector.Primary,
	}

	rep, err := s.scan(ctx)
	if err != nil {
		s.Tracker.Update(model.EmptyComboSet(cycle.At))
		cycle.Err = err.Error()
		s.setStatus(cycle.At, cycle.Err)
		s.Log.Error("scan cycle failed", zap.Error(err))
		s.record(cycle)
		return err
	}

	s.Tracker.Update(rep.Combos)
	cycle.LastBar = rep.Combos.BuiltAt
	cycle.Candidates = rep.Candidates.Len()
	cycle.Zones = rep.Zones.Len()
	cycle.Combos = rep.Combos
	s.setStatus(cycle.At, "")
	s.record(cycle)

	s.Log.Info("scan cycle done",
		zap.Time("last_bar", rep.Combos.BuiltAt),
		zap.Int("candidates", cycle.Candidates),
		zap.Int("zones", cycle.Zones),
		zap.Int("combos", rep.Combos.Len()),
	)
	if rep.Combos.Len() > 0 && !rep.Combos.Equal(prev) {
		s.notify(notifier.FormatCombos(s.Collector.Symbol, rep.Combos))
	}
	return nil
}

func (s *Scheduler) scan(ctx context.Context) (*strategy.Report, error) {
	snap, err := s.Collector.Collect(ctx, s.opts.UseConfluence)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	rep, err := s.Engine.Evaluate(snap.Primary, snap.Confluence)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return rep, nil
}

// OnTick checks the live quote against the active combos and executes any
// entries it produces. Outside the trading session nothing is checked.
func (s *Scheduler) OnTick(ctx context.Context) ([]model.EntrySignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opts.Session.Contains(s.now()) {
		return nil, nil
	}
	if s.Tracker.Snapshot().Len() == 0 {
		return nil, nil
	}
	q, err := s.Collector.Quote(ctx)
	if err != nil {
		s.Log.Warn("quote fetch failed", zap.Error(err))
		return nil, err
	}

	signals := s.Tracker.OnQuote(q)
	for _, sig := range signals {
		s.enter(ctx, sig)
	}
	return signals, nil
}

// enter sizes and places one entry. The signal is already in the ledger, so
// a failed order is reported but never retried.
func (s *Scheduler) enter(ctx context.Context, sig model.EntrySignal) {
	log := s.Log.With(
		zap.String("side", string(sig.Side)),
		zap.Time("trigger", sig.Combo.Trigger.Time),
		zap.Float64("price", sig.Price),
	)
	evt := &recorder.EntryEvent{Signal: sig, Executor: s.Executor.Name()}
	s.statusMu.Lock()
	s.entries++
	s.statusMu.Unlock()

	plan, err := s.Sizer.Plan(sig.Combo.Trigger)
	if err != nil {
		log.Error("size entry failed", zap.Error(err))
		evt.Err = err.Error()
		s.recordEntry(evt)
		s.notify(fmt.Sprintf("⚠️ <b>%s entry skipped</b>\n\n%s", sig.Side, err))
		return
	}

	evt.Order = executor.NewOrder(s.Collector.Symbol, s.opts.OrderLabel, sig, plan, s.now())
	execCtx, cancel := context.WithTimeout(ctx, executeTimeout)
	execErr := s.Executor.ExecuteMarketOrder(execCtx, evt.Order)
	cancel()
	if execErr != nil {
		log.Error("execute order failed", zap.String("order_id", evt.Order.ID), zap.Error(execErr))
		evt.Err = execErr.Error()
	} else {
		log.Info("entry executed", zap.String("order_id", evt.Order.ID), zap.Float64("volume", plan.Volume))
	}
	s.recordEntry(evt)
	s.notify(notifier.FormatEntry(sig, evt.Order, execErr))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i] // "/combos@MyBot" in group chats
	}
	switch cmd {
	case "/combos":
		return notifier.FormatCombos(s.Collector.Symbol, s.Tracker.Snapshot())
	case "/ledger":
		return notifier.FormatLedger(s.Tracker.Invalidated())
	case "/status":
		return notifier.FormatStatus(s.Status())
	case "/scan":
		if err := s.OnBar(s.ctx); err != nil {
			return fmt.Sprintf("❌ scan failed: %v", err)
		}
		return notifier.FormatCombos(s.Collector.Symbol, s.Tracker.Snapshot())
	default:
		return notifier.FormatHelp()
	}
}

// Status summarizes the scheduler state.
func (s *Scheduler) Status() notifier.Status {
	s.statusMu.Lock()
	st := notifier.Status{
		LastScan: s.lastScan,
		LastErr:  s.lastErr,
		Entries:  s.entries,
	}
	s.statusMu.Unlock()

	st.Symbol = s.Collector.Symbol
	st.Primary = s.Collector.Primary
	if s.opts.UseConfluence {
		st.Confluence = s.Collector.Confluence
	}
	st.Session = s.opts.Session.String()
	st.SessionOpen = s.opts.Session.Contains(s.now())
	st.Executor = s.Executor.Name()
	st.Combos = s.Tracker.Snapshot().Len()
	st.Balance = s.Sizer.Balance()
	return st
}

func (s *Scheduler) setStatus(at time.Time, errMsg string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.lastScan = at
	s.lastErr = errMsg
}

func (s *Scheduler) record(cycle *recorder.ScanCycle) {
	if err := s.Recorder.RecordScan(cycle); err != nil {
		s.Log.Error("record scan failed", zap.Error(err))
	}
}

func (s *Scheduler) recordEntry(evt *recorder.EntryEvent) {
	if err := s.Recorder.RecordEntry(evt); err != nil {
		s.Log.Error("record entry failed", zap.Error(err))
	}
}

// notify sends in the background so a slow chat never delays the next tick.
func (s *Scheduler) notify(text string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Notifier.Send(s.ctx, text); err != nil {
			s.Log.Error("send notification failed", zap.Error(err))
		}
	}()
}
