package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nerrad567/gray-logic-diag/internal/diagnosis/metrics"
	"github.com/nerrad567/gray-logic-diag/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-diag/internal/timeline"
)

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Gatherer fans out to the external collaborators and assembles a
// DiagnosticContext under partial-failure tolerance.
//
// The four context calls run as independent goroutines joined with a
// settle-all barrier: each slot records its own Result, no failure
// short-circuits a sibling, and the whole stage carries a hard wall-clock
// ceiling after which partial results are final. Every task is a pure
// read, so no cross-task coordination is needed.
type Gatherer struct {
	devices DeviceSource
	similar SimilaritySource
	cfg     config.DiagnosisConfig
	logger  Logger
}

// NewGatherer creates a gatherer. The similarity source may be nil when
// no search backend is wired; its slot then folds into the unavailable
// list on every run.
func NewGatherer(devices DeviceSource, similar SimilaritySource, cfg config.DiagnosisConfig) *Gatherer {
	return &Gatherer{
		devices: devices,
		similar: similar,
		cfg:     cfg,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the gatherer.
func (g *Gatherer) SetLogger(logger Logger) {
	g.logger = logger
}

// Gather collects status, recent events, similar devices and system
// status for one device. It never returns an error: failed slots are
// absent from the context and named in its unavailable list.
func (g *Gatherer) Gather(ctx context.Context, deviceID string) DiagnosticContext {
	start := time.Now()
	defer func() {
		metrics.GatherDuration.Observe(time.Since(start).Seconds())
	}()

	// Hard ceiling for the whole stage. On expiry, in-flight tasks see
	// their contexts cancelled and settle as timeouts.
	ctx, cancel := context.WithTimeout(ctx, g.cfg.GatherTimeoutDuration())
	defer cancel()

	var (
		statusRes  Result[DeviceStatus]
		eventsRes  Result[[]timeline.RawEvent]
		similarRes Result[[]SimilarDevice]
		systemRes  Result[SystemStatus]
	)

	// Each result variable is written by exactly one goroutine and read
	// only after the barrier.
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		statusRes = fetch(ctx, g.cfg, SourceStatus, g.logger, func(c context.Context) (DeviceStatus, error) {
			return g.devices.GetStatus(c, deviceID)
		})
	}()

	go func() {
		defer wg.Done()
		eventsRes = fetch(ctx, g.cfg, SourceEvents, g.logger, func(c context.Context) ([]timeline.RawEvent, error) {
			return g.devices.GetEvents(c, deviceID, g.cfg.EventWindowDuration())
		})
	}()

	go func() {
		defer wg.Done()
		if g.similar == nil {
			similarRes = Err[[]SimilarDevice](&SourceError{
				Kind:   ErrorNotFound,
				Source: SourceSimilar,
				Err:    errors.New("similarity source not configured"),
			})
			return
		}
		similarRes = fetch(ctx, g.cfg, SourceSimilar, g.logger, func(c context.Context) ([]SimilarDevice, error) {
			return g.similar.FindSimilar(c, deviceID, g.cfg.SimilarK)
		})
	}()

	go func() {
		defer wg.Done()
		systemRes = fetch(ctx, g.cfg, SourceSystem, g.logger, func(c context.Context) (SystemStatus, error) {
			return g.systemStatus(c)
		})
	}()

	wg.Wait()

	var dc DiagnosticContext

	if statusRes.OK() {
		v := statusRes.Value()
		dc.Health = &v
	} else {
		dc.Unavailable = append(dc.Unavailable, failureOf(SourceStatus, statusRes.Err()))
	}

	if eventsRes.OK() {
		dc.Events = eventsRes.Value()
		dc.HasEvents = true
	} else {
		dc.Unavailable = append(dc.Unavailable, failureOf(SourceEvents, eventsRes.Err()))
	}

	if similarRes.OK() {
		dc.Similar = similarRes.Value()
		dc.HasSimilar = true
	} else {
		dc.Unavailable = append(dc.Unavailable, failureOf(SourceSimilar, similarRes.Err()))
	}

	if systemRes.OK() {
		v := systemRes.Value()
		dc.System = &v
	} else {
		dc.Unavailable = append(dc.Unavailable, failureOf(SourceSystem, systemRes.Err()))
	}

	g.logger.Debug("context gathered",
		"device_id", deviceID,
		"unavailable", len(dc.Unavailable),
		"elapsed", time.Since(start).String(),
	)

	return dc
}

// systemStatus derives coarse system health from the device catalogue.
func (g *Gatherer) systemStatus(ctx context.Context) (SystemStatus, error) {
	devices, err := g.devices.ListDevices(ctx)
	if err != nil {
		return SystemStatus{}, err
	}

	online := 0
	for _, d := range devices {
		if d.Online {
			online++
		}
	}

	return SystemStatus{
		DevicesTotal:  len(devices),
		DevicesOnline: online,
		Summary:       fmt.Sprintf("%d of %d devices online", online, len(devices)),
	}, nil
}

// fetch runs one collaborator call with a per-call timeout and bounded
// jittered exponential backoff. Non-retryable failures stop immediately;
// retryable ones stop at the attempt ceiling or when the gather context
// expires, whichever comes first.
func fetch[T any](ctx context.Context, cfg config.DiagnosisConfig, source string, logger Logger, call func(context.Context) (T, error)) Result[T] {
	op := func() (T, error) {
		callCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeoutDuration())
		defer cancel()

		v, err := call(callCtx)
		if err == nil {
			return v, nil
		}

		se := classify(err, source)
		if !se.Retryable() {
			return v, backoff.Permanent(se)
		}
		return v, se
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.RetryInitialDelayDuration()
	policy.MaxInterval = cfg.RetryMaxDelayDuration()
	policy.MaxElapsedTime = 0 // the attempt ceiling and gather context bound retries

	notify := func(err error, next time.Duration) {
		metrics.SourceRetries.WithLabelValues(source).Inc()
		logger.Debug("retrying source call", "source", source, "next_attempt_in", next.String(), "error", err.Error())
	}

	bounded := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(cfg.RetryMaxAttempts-1)), ctx)

	v, err := backoff.RetryNotifyWithData(op, bounded, notify)
	if err != nil {
		se := classify(err, source)
		metrics.SourceFailures.WithLabelValues(source, string(se.Kind)).Inc()
		return Err[T](se)
	}
	return Ok(v)
}

// failureOf folds a slot error into a report-friendly SourceFailure.
func failureOf(source string, err error) SourceFailure {
	se := classify(err, source)
	f := SourceFailure{Source: source, Kind: se.Kind}
	if se.Err != nil {
		f.Detail = se.Err.Error()
	}
	return f
}
