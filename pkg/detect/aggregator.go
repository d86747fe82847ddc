// Package detect hosts the DetectorAggregator: the registry of pluggable
// detector instances and the funnel that merges their asynchronous signals
// into one sink while isolating per-detector failures.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
	domaindetect "github.com/felixgeelhaar/ticklist/pkg/domain/detect"
	"github.com/felixgeelhaar/ticklist/pkg/domain/events"
)

// SignalSink receives every signal the aggregator lets through, tagged with
// the emitting detector's name. Implementations serialize their own state
// mutation; the aggregator guarantees only that drops happen here first.
type SignalSink func(sig domaindetect.Signal, detector string)

type registration struct {
	detector    domaindetect.Detector
	enabled     bool
	initialized bool
	// failed marks a detector disabled for the rest of the session after an
	// initialization or signal-handling failure.
	failed bool
}

// Aggregator owns the detector registry. One detector failing to initialize
// or signal must never prevent the others from operating.
type Aggregator struct {
	mu         sync.Mutex
	regs       map[string]*registration
	order      []string
	sink       SignalSink
	dispatcher *events.Dispatcher
	logger     *slog.Logger
}

// NewAggregator creates an aggregator delivering accepted signals to sink.
func NewAggregator(sink SignalSink, dispatcher *events.Dispatcher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if dispatcher == nil {
		dispatcher = events.NewDispatcher()
	}
	return &Aggregator{
		regs:       make(map[string]*registration),
		sink:       sink,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// AddDetector registers a detector. A disabled detector produces no signals
// and is excluded from the active count until SetEnabled turns it on.
func (a *Aggregator) AddDetector(d domaindetect.Detector, enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	name := d.Name()
	if _, dup := a.regs[name]; dup {
		return fmt.Errorf("detector %q already registered", name)
	}
	a.regs[name] = &registration{detector: d, enabled: enabled}
	a.order = append(a.order, name)
	return nil
}

// SetEnabled toggles a detector at runtime. Enabling initializes the
// detector if it never was; disabling stops future signals but does not
// revert state already applied.
func (a *Aggregator) SetEnabled(name string, enabled bool) error {
	a.mu.Lock()
	reg, ok := a.regs[name]
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("unknown detector %q", name)
	}
	reg.enabled = enabled
	needsInit := enabled && !reg.initialized && !reg.failed
	a.mu.Unlock()

	if needsInit {
		a.initialize(reg)
	}
	return nil
}

// IsEnabled reports whether a detector is currently enabled and healthy.
func (a *Aggregator) IsEnabled(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	reg, ok := a.regs[name]
	return ok && reg.enabled && !reg.failed
}

// ActiveCount returns the number of enabled, healthy detectors.
func (a *Aggregator) ActiveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, reg := range a.regs {
		if reg.enabled && !reg.failed {
			n++
		}
	}
	return n
}

// Names returns the registered detector names in registration order.
func (a *Aggregator) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Limitations aggregates the disclosure records of every registered
// detector, failed ones included: a degraded detector's limitations are
// still worth showing.
func (a *Aggregator) Limitations() []checklist.DetectionLimitation {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []checklist.DetectionLimitation
	for _, name := range a.order {
		out = append(out, a.regs[name].detector.Limitations()...)
	}
	return out
}

// Start initializes every enabled detector. Failures are isolated: the
// failing detector is disabled for the session and the rest proceed.
func (a *Aggregator) Start(ctx context.Context) {
	a.mu.Lock()
	pending := make([]*registration, 0, len(a.order))
	for _, name := range a.order {
		reg := a.regs[name]
		if reg.enabled && !reg.initialized && !reg.failed {
			pending = append(pending, reg)
		}
	}
	a.mu.Unlock()

	for _, reg := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}
		a.initialize(reg)
	}
}

func (a *Aggregator) initialize(reg *registration) {
	name := reg.detector.Name()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return reg.detector.Initialize(func(sig domaindetect.Signal) {
			a.deliver(name, sig)
		})
	}()

	a.mu.Lock()
	if err != nil {
		reg.failed = true
	} else {
		reg.initialized = true
	}
	a.mu.Unlock()

	if err != nil {
		a.logger.Error("detector failed to initialize, disabling for this session",
			"detector", name, "error", err)
		a.publishFailure(name, err)
		return
	}
	a.logger.Debug("detector initialized", "detector", name)
}

// deliver applies the drop rules that belong to the aggregator: signals from
// disabled or failed detectors go nowhere. A panic while routing the signal
// degrades the emitting detector instead of escaping into its goroutine.
func (a *Aggregator) deliver(name string, sig domaindetect.Signal) {
	a.mu.Lock()
	reg, ok := a.regs[name]
	drop := !ok || !reg.enabled || reg.failed
	sink := a.sink
	a.mu.Unlock()

	if drop || sink == nil {
		return
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		sink(sig, name)
		return nil
	}()
	if err != nil {
		a.mu.Lock()
		reg.failed = true
		a.mu.Unlock()
		a.logger.Error("signal handling failed, disabling detector for this session",
			"detector", name, "error", err)
		a.publishFailure(name, err)
	}
}

// Poll asks every enabled detector that supports polling to re-observe.
// A panic or error degrades only the offending detector.
func (a *Aggregator) Poll() {
	a.mu.Lock()
	pollable := make([]*registration, 0, len(a.order))
	for _, name := range a.order {
		reg := a.regs[name]
		if !reg.enabled || reg.failed || !reg.initialized {
			continue
		}
		if _, ok := reg.detector.(domaindetect.Pollable); ok {
			pollable = append(pollable, reg)
		}
	}
	a.mu.Unlock()

	for _, reg := range pollable {
		name := reg.detector.Name()
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return reg.detector.(domaindetect.Pollable).Poll()
		}()
		if err != nil {
			a.mu.Lock()
			reg.failed = true
			a.mu.Unlock()
			a.logger.Error("detector poll failed, disabling for this session",
				"detector", name, "error", err)
			a.publishFailure(name, err)
		}
	}
}

// Close tears every detector down best-effort: one detector's teardown error
// or panic must not block the others. Errors are collected and returned
// joined.
func (a *Aggregator) Close() error {
	a.mu.Lock()
	regs := make([]*registration, 0, len(a.order))
	for _, name := range a.order {
		regs = append(regs, a.regs[name])
	}
	a.mu.Unlock()

	var errs []error
	for _, reg := range regs {
		name := reg.detector.Name()
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return reg.detector.Close()
		}()
		if err != nil {
			a.logger.Warn("detector teardown failed", "detector", name, "error", err)
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (a *Aggregator) publishFailure(name string, err error) {
	_ = a.dispatcher.Dispatch(context.Background(), events.NewDetectorFailed(name, err.Error()))
}
