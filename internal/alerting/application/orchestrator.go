package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	alerting "labajada-cloud/internal/alerting/domain"
	"labajada-cloud/internal/observability/metrics"
	"labajada-cloud/internal/wind"
)

// WeatherProvider returns the current station reading.
type WeatherProvider interface {
	Current(ctx context.Context) (wind.Reading, error)
}

// ReadingStore keeps the most recent reading so a stateless pass can detect
// the wind-up transition against the previous one.
type ReadingStore interface {
	Latest(ctx context.Context) (*wind.Reading, error)
	SaveLatest(ctx context.Context, reading wind.Reading) error
}

// AlertEvent is published for every alert type actually sent in a pass.
type AlertEvent struct {
	Type  string         `json:"type"`
	Alert alerting.Alert `json:"alert"`
	Wind  wind.Reading   `json:"wind"`
	Sent  int            `json:"sent"`
}

// AlertNotifier publishes alert events to side channels (SSE, ops webhook).
type AlertNotifier interface {
	Notify(ctx context.Context, event AlertEvent)
}

// PassReport summarizes one evaluation pass for operators.
type PassReport struct {
	Wind          wind.Reading                               `json:"wind"`
	Cardinal      string                                     `json:"cardinal"`
	Trackers      map[alerting.Condition]alerting.TrackerResult `json:"trackers"`
	Subscribers   int                                        `json:"subscribers"`
	Sent          int                                        `json:"sent"`
	Skipped       int                                        `json:"skipped"`
	Expired       int                                        `json:"expired"`
	Failed        int                                        `json:"failed"`
	AlertTypes    []alerting.Condition                       `json:"alert_types,omitempty"`
	CooldownTypes []alerting.Condition                       `json:"cooldown_types,omitempty"`
}

// Orchestrator runs the end-to-end evaluation pass:
// fetch -> evaluate -> track -> select -> gate -> dispatch -> log.
type Orchestrator struct {
	weather     WeatherProvider
	subscribers SubscriberStore
	logs        LogStore
	readings    ReadingStore
	tracker     *Tracker
	selector    *Selector
	gate        *CooldownGate
	dispatcher  *Dispatcher
	thresholds  wind.Thresholds
	notifier    AlertNotifier
	clock       Clock
	log         zerolog.Logger
}

// OrchestratorOption customizes the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithNotifier assigns a side-channel notifier.
func WithNotifier(notifier AlertNotifier) OrchestratorOption {
	return func(o *Orchestrator) {
		o.notifier = notifier
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) OrchestratorOption {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(log zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// NewOrchestrator constructs the alert orchestrator.
func NewOrchestrator(
	weather WeatherProvider,
	subscribers SubscriberStore,
	logs LogStore,
	readings ReadingStore,
	tracker *Tracker,
	selector *Selector,
	gate *CooldownGate,
	dispatcher *Dispatcher,
	thresholds wind.Thresholds,
	opts ...OrchestratorOption,
) (*Orchestrator, error) {
	if weather == nil {
		return nil, errors.New("orchestrator: nil weather provider")
	}
	if subscribers == nil || logs == nil || readings == nil {
		return nil, errors.New("orchestrator: nil store")
	}
	if tracker == nil || selector == nil || gate == nil || dispatcher == nil {
		return nil, errors.New("orchestrator: nil component")
	}
	o := &Orchestrator{
		weather:     weather,
		subscribers: subscribers,
		logs:        logs,
		readings:    readings,
		tracker:     tracker,
		selector:    selector,
		gate:        gate,
		dispatcher:  dispatcher,
		thresholds:  thresholds,
		clock:       systemClock{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RunPass executes one evaluation pass. A fetch failure or a store failure
// before the first tracker mutation aborts the pass with no state change.
func (o *Orchestrator) RunPass(ctx context.Context) (*PassReport, error) {
	if o == nil {
		return nil, errors.New("orchestrator: nil")
	}
	started := o.clock.Now()
	report, err := o.runPass(ctx)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObservePass(result, o.clock.Now().Sub(started))
	return report, err
}

func (o *Orchestrator) runPass(ctx context.Context) (*PassReport, error) {
	now := o.clock.Now()

	reading, err := o.weather.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", alerting.ErrNoWindData, err)
	}
	if reading.Speed == nil && reading.Gust == nil && reading.Direction == nil {
		return nil, alerting.ErrNoWindData
	}
	cardinal := wind.CardinalOf(reading)
	o.log.Info().
		Float64("speed", reading.SpeedOrZero()).
		Float64("gust", reading.GustOrZero()).
		Str("cardinal", cardinal).
		Msg("wind reading")

	// The previous reading is needed before any tracker mutation; a store
	// failure here aborts the pass while state is still consistent.
	previous, err := o.readings.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", alerting.ErrStoreUnavailable, err)
	}

	global := map[alerting.Condition]alerting.TrackerResult{}
	globalConditions := []struct {
		condition alerting.Condition
		met       bool
	}{
		{alerting.ConditionEpic, o.thresholds.IsEpic(reading)},
		{alerting.ConditionDangerous, o.thresholds.IsDangerous(reading)},
		{alerting.ConditionOffshore, o.thresholds.IsOffshore(reading)},
	}
	for _, gc := range globalConditions {
		result, err := o.tracker.Update(ctx, gc.condition, "", gc.met, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", alerting.ErrStoreUnavailable, err)
		}
		global[gc.condition] = result
	}

	subscribers, err := o.subscribers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", alerting.ErrStoreUnavailable, err)
	}

	blocked, err := o.gate.BlockedTypes(ctx, now)
	if err != nil {
		// Degrades cooldown accuracy for this pass only; the log append at
		// the end restores it.
		o.log.Warn().Err(err).Msg("cooldown log unavailable, assuming no recent alerts")
		blocked = map[alerting.Condition]bool{}
	}

	report := &PassReport{
		Wind:        reading,
		Cardinal:    cardinal,
		Trackers:    global,
		Subscribers: len(subscribers),
	}
	for condition := range blocked {
		report.CooldownTypes = append(report.CooldownTypes, condition)
	}
	sortConditions(report.CooldownTypes)

	var (
		mu        sync.Mutex
		sentTypes = map[alerting.Condition]*alerting.Alert{}
		wg        sync.WaitGroup
	)
	for _, sub := range subscribers {
		wg.Add(1)
		go func(sub alerting.Subscriber) {
			defer wg.Done()
			alert, outcome := o.evaluateSubscriber(ctx, sub, reading, previous, global, blocked, now)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case alerting.OutcomeSent:
				report.Sent++
				sentTypes[alert.Type] = alert
			case alerting.OutcomeExpired:
				report.Expired++
			case alerting.OutcomeFailed:
				report.Failed++
			default:
				report.Skipped++
			}
		}(sub)
	}
	wg.Wait()

	if err := o.readings.SaveLatest(ctx, reading); err != nil {
		// Wind-up detection lags one pass; self-heals on the next write.
		o.log.Warn().Err(err).Msg("save latest reading failed")
	}

	if report.Sent > 0 {
		for alertType, alert := range sentTypes {
			report.AlertTypes = append(report.AlertTypes, alertType)
			o.appendLog(ctx, alertType, reading, cardinal, report)
			if o.notifier != nil {
				o.notifier.Notify(ctx, AlertEvent{Type: "sent", Alert: *alert, Wind: reading, Sent: report.Sent})
			}
			metrics.IncAlertSent(string(alertType))
		}
		sortConditions(report.AlertTypes)
	}
	return report, nil
}

// evaluateSubscriber updates the subscriber-scoped trackers, selects an
// alert and dispatches it. The empty outcome means "skipped".
func (o *Orchestrator) evaluateSubscriber(
	ctx context.Context,
	sub alerting.Subscriber,
	reading wind.Reading,
	previous *wind.Reading,
	global map[alerting.Condition]alerting.TrackerResult,
	blocked map[alerting.Condition]bool,
	now time.Time,
) (*alerting.Alert, alerting.Outcome) {
	cfg := sub.Config.Normalize()

	good, err := o.tracker.Update(ctx, alerting.ConditionGood, sub.ID, o.thresholds.IsGood(reading, cfg.MinNavigableWind), now)
	if err != nil {
		o.log.Warn().Err(err).Str("subscriber", sub.ID).Msg("good tracker update failed")
		return nil, alerting.OutcomeFailed
	}

	edge := false
	if previous != nil {
		edge = o.thresholds.IsWindUpEdge(*previous, reading, cfg.MinNavigableWind)
	}
	windUp, err := o.tracker.UpdateEdge(ctx, alerting.ConditionWindUp, sub.ID, edge, o.thresholds.IsNavigable(reading, cfg.MinNavigableWind), now)
	if err != nil {
		o.log.Warn().Err(err).Str("subscriber", sub.ID).Msg("windUp tracker update failed")
		return nil, alerting.OutcomeFailed
	}

	alert := o.selector.Select(SelectorInput{
		Reading:   reading,
		Epic:      global[alerting.ConditionEpic],
		Dangerous: global[alerting.ConditionDangerous],
		Offshore:  global[alerting.ConditionOffshore],
		Good:      good,
		WindUp:    windUp,
	})
	if alert == nil {
		return nil, ""
	}
	if blocked[alert.Type] {
		o.log.Debug().Str("subscriber", sub.ID).Str("alert", string(alert.Type)).Msg("skipped, cooldown active")
		return alert, ""
	}
	return alert, o.dispatcher.Dispatch(ctx, sub, *alert)
}

// appendLog writes one log entry for an alert type sent this pass, retrying
// once with a reduced payload. A missed entry degrades cooldown accuracy but
// never fails the pass.
func (o *Orchestrator) appendLog(ctx context.Context, alertType alerting.Condition, reading wind.Reading, cardinal string, report *PassReport) {
	entry := &alerting.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: o.clock.Now(),
		AlertType: alertType,
		Sent:      report.Sent,
		Skipped:   report.Skipped,
		Expired:   report.Expired,
		CreatedAt: o.clock.Now(),
	}
	entry.Snapshot(reading)
	if err := o.logs.Append(ctx, entry); err == nil {
		return
	} else {
		o.log.Error().Err(err).Str("alert", string(alertType)).Msg("alert log append failed, retrying reduced")
	}
	reduced := &alerting.LogEntry{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
		AlertType: alertType,
		WindSpeed: reading.SpeedOrZero(),
		CreatedAt: entry.CreatedAt,
	}
	if err := o.logs.Append(ctx, reduced); err != nil {
		o.log.Error().Err(err).Str("alert", string(alertType)).Msg("alert log append failed twice, giving up")
	}
}

func sortConditions(conditions []alerting.Condition) {
	sort.Slice(conditions, func(i, j int) bool { return conditions[i] < conditions[j] })
}
