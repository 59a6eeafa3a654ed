// Package gestures turns a stream of decoded wearable IMU samples into
// discrete, debounced command events.
//
// The engine is a two-mode state machine. In IDLE it watches for a
// double-flick of the wrist - two high angular-rate spikes within a bounded
// span - which arms COMMAND mode. In COMMAND mode it waits for the hand to
// settle, captures a vertical-acceleration baseline, then classifies the
// next motion as a twist (track skip) or a swipe (pause/play). A recognised
// gesture drops back to IDLE briefly and re-arms automatically, so a second
// command doesn't need another double-flick.
//
// Step must be called with samples in strict arrival order from a single
// goroutine; timestamps are wall-clock, not sequence numbers. There is no
// error path anywhere: motion that crosses no threshold simply produces no
// event.
package gestures

import (
	"math"
	"time"

	"github.com/wearhome/wearhome/wt901"
)

// Event is a symbolic output of the engine. The zero value is not an event;
// Step returns ok=false when nothing fired.
type Event string

const (
	EnterCommandMode   Event = "ENTER_COMMAND_MODE"
	ReenterCommandMode Event = "REENTER_COMMAND_MODE"
	ReadyForGesture    Event = "READY_FOR_GESTURE"
	CancelToIdle       Event = "CANCEL_TO_IDLE"
	CommandTimeout     Event = "COMMAND_TIMEOUT"
	NextTrack          Event = "NEXT_TRACK"
	PrevTrack          Event = "PREV_TRACK"
	Pause              Event = "PAUSE"
	Play               Event = "PLAY"
)

// IsCommand reports whether the event is a gesture command, as opposed to a
// mode transition.
func (e Event) IsCommand() bool {
	switch e {
	case NextTrack, PrevTrack, Pause, Play:
		return true
	}
	return false
}

const (
	ModeIdle    = "IDLE"
	ModeCommand = "COMMAND"
)

// Tuning holds every threshold and timing constant of the engine. The
// physical units vary per sensor unit and wearer, so all of these are
// adjustable in configuration.
type Tuning struct {
	// wake / cancel: double flick
	FlickThreshold  float64       // peak gyro magnitude, dps
	FlickWindow     time.Duration // trailing peak window
	FlickRefractory time.Duration // min gap between counted flicks
	DoubleFlickSpan time.Duration // max 1st->2nd flick span

	// command mode timing
	ReadyDelay      time.Duration // settle delay on a fresh arm
	RearmReadyDelay time.Duration // shorter settle delay on re-arm
	CommandTimeout  time.Duration // give up waiting for a gesture
	Cooldown        time.Duration // suppression after a recognised gesture
	RearmDelay      time.Duration // idle dwell before automatic re-arm

	// history
	GestureWindow  time.Duration // trailing window for twist/swipe peaks
	HistoryHorizon time.Duration // retention of the sample queue

	// twist: gy-dominated
	TwistThreshold       float64 // peak |gy|, dps
	TwistRightPositiveGY bool    // sign convention, invertible per unit

	// swipe: vertical acceleration deviation from baseline
	SwipeThreshold       float64 // |daz|, g
	SwipeRejectThreshold float64 // peak |gy| ruling out a swipe, dps
	SwipeUpPositiveDAZ   bool    // sign convention, invertible per unit
	BaselineSamples      int     // az samples averaged into the baseline
}

// DefaultTuning returns the canonical tuning for the WT901 BLE unit.
func DefaultTuning() Tuning {
	return Tuning{
		FlickThreshold:  750,
		FlickWindow:     250 * time.Millisecond,
		FlickRefractory: 200 * time.Millisecond,
		DoubleFlickSpan: 850 * time.Millisecond,

		ReadyDelay:      1250 * time.Millisecond,
		RearmReadyDelay: 800 * time.Millisecond,
		CommandTimeout:  5 * time.Second,
		Cooldown:        400 * time.Millisecond,
		RearmDelay:      250 * time.Millisecond,

		GestureWindow:  600 * time.Millisecond,
		HistoryHorizon: 2 * time.Second,

		TwistThreshold:       180,
		TwistRightPositiveGY: false,

		SwipeThreshold:       0.55,
		SwipeRejectThreshold: 260,
		SwipeUpPositiveDAZ:   true,
		BaselineSamples:      6,
	}
}

type entry struct {
	t time.Time
	s wt901.Sample
}

// Engine is the per-session gesture state machine. One instance per sensor
// connection; all fields are private to that session and mutated only by
// Step.
type Engine struct {
	tuning Tuning
	clock  func() time.Time

	mode string
	hist []entry

	// flick bookkeeping
	flickTimes []time.Time
	lastFlick  time.Time

	// command bookkeeping
	cmdStart        time.Time
	lastCommand     time.Time
	readyAnnounced  bool
	enteredViaRearm bool

	// command-mode baseline for az deltas
	azBaseline *float64
	azAccum    float64
	azCount    int

	pendingRearm *time.Time
}

func NewEngine(tuning Tuning) *Engine {
	return &Engine{
		tuning: tuning,
		clock:  time.Now,
		mode:   ModeIdle,
	}
}

// SetClock replaces the time source, for deterministic tests.
func (e *Engine) SetClock(clock func() time.Time) {
	e.clock = clock
}

// Mode returns the current mode, for status reporting.
func (e *Engine) Mode() string {
	return e.mode
}

func (e *Engine) clearHistory() {
	e.hist = e.hist[:0]
}

func (e *Engine) resetBaseline() {
	e.azBaseline = nil
	e.azAccum = 0
	e.azCount = 0
	e.readyAnnounced = false
}

func (e *Engine) enterCommandMode(now time.Time, viaRearm bool) {
	e.mode = ModeCommand
	e.cmdStart = now
	e.enteredViaRearm = viaRearm
	e.clearHistory()
	e.resetBaseline()
}

func (e *Engine) push(now time.Time, s wt901.Sample) {
	e.hist = append(e.hist, entry{now, s})
	kept := e.hist[:0]
	for _, h := range e.hist {
		if now.Sub(h.t) <= e.tuning.HistoryHorizon {
			kept = append(kept, h)
		}
	}
	e.hist = kept
}

// window returns the history entries within the trailing duration d.
func (e *Engine) window(now time.Time, d time.Duration) []entry {
	for i, h := range e.hist {
		if now.Sub(h.t) <= d {
			return e.hist[i:]
		}
	}
	return nil
}

func (e *Engine) detectFlick(now time.Time) bool {
	if !e.lastFlick.IsZero() && now.Sub(e.lastFlick) < e.tuning.FlickRefractory {
		return false
	}
	peak := 0.0
	for _, h := range e.window(now, e.tuning.FlickWindow) {
		if m := h.s.GyroMagnitude(); m > peak {
			peak = m
		}
	}
	if peak >= e.tuning.FlickThreshold {
		e.lastFlick = now
		return true
	}
	return false
}

func (e *Engine) detectDoubleFlick(now time.Time) bool {
	if !e.detectFlick(now) {
		return false
	}
	e.flickTimes = append(e.flickTimes, now)
	kept := e.flickTimes[:0]
	for _, t := range e.flickTimes {
		if now.Sub(t) <= e.tuning.DoubleFlickSpan {
			kept = append(kept, t)
		}
	}
	e.flickTimes = kept
	if len(e.flickTimes) >= 2 {
		e.flickTimes = e.flickTimes[:0]
		return true
	}
	return false
}

func (e *Engine) detectTwist(now time.Time) (Event, bool) {
	w := e.window(now, e.tuning.GestureWindow)
	if len(w) == 0 {
		return "", false
	}
	// the sample with the largest |gy| carries the twist direction
	peak := w[0].s.GY
	for _, h := range w[1:] {
		if math.Abs(h.s.GY) > math.Abs(peak) {
			peak = h.s.GY
		}
	}
	if math.Abs(peak) < e.tuning.TwistThreshold {
		return "", false
	}
	right := peak > 0
	if !e.tuning.TwistRightPositiveGY {
		right = !right
	}
	if right {
		return NextTrack, true
	}
	return PrevTrack, true
}

// updateBaseline accumulates az until the baseline is established, using the
// newest history entry (the sample just pushed). Reports whether gesture
// detection may proceed.
func (e *Engine) updateBaseline() bool {
	if e.azBaseline != nil {
		return true
	}
	if len(e.hist) == 0 {
		return false
	}
	e.azAccum += e.hist[len(e.hist)-1].s.AZ
	e.azCount++
	if e.azCount >= e.tuning.BaselineSamples {
		baseline := e.azAccum / float64(e.azCount)
		e.azBaseline = &baseline
		return true
	}
	return false
}

func (e *Engine) detectSwipe(now time.Time) (Event, bool) {
	if e.azBaseline == nil {
		return "", false
	}
	w := e.window(now, e.tuning.GestureWindow)
	if len(w) == 0 {
		return "", false
	}
	gyPeak := 0.0
	for _, h := range w {
		if m := math.Abs(h.s.GY); m > gyPeak {
			gyPeak = m
		}
	}
	// a strong twist motion must not be misread as a swipe
	if gyPeak > e.tuning.SwipeRejectThreshold {
		return "", false
	}
	dazPeak := math.Inf(-1)
	dazTrough := math.Inf(1)
	for _, h := range w {
		daz := h.s.AZ - *e.azBaseline
		if daz > dazPeak {
			dazPeak = daz
		}
		if daz < dazTrough {
			dazTrough = daz
		}
	}
	dazBest := dazPeak
	if math.Abs(dazTrough) > math.Abs(dazPeak) {
		dazBest = dazTrough
	}
	if math.Abs(dazBest) < e.tuning.SwipeThreshold {
		return "", false
	}
	up := dazBest > 0
	if !e.tuning.SwipeUpPositiveDAZ {
		up = !up
	}
	if up {
		return Pause, true
	}
	return Play, true
}

func (e *Engine) gestureFired(now time.Time) {
	e.lastCommand = now
	e.mode = ModeIdle
	e.clearHistory()
	at := now.Add(e.tuning.RearmDelay)
	e.pendingRearm = &at
}

// Step ingests one sample, stamping it with the current time, and returns at
// most one event. Calls must be in strict arrival order from one goroutine.
func (e *Engine) Step(s wt901.Sample) (Event, bool) {
	now := e.clock()
	e.push(now, s)

	// a scheduled re-arm preempts everything else
	if e.pendingRearm != nil && !now.Before(*e.pendingRearm) {
		e.pendingRearm = nil
		e.enterCommandMode(now, true)
		return ReenterCommandMode, true
	}

	if e.mode == ModeIdle {
		if e.detectDoubleFlick(now) {
			e.enterCommandMode(now, false)
			return EnterCommandMode, true
		}
		return "", false
	}

	// COMMAND mode. A second double-flick cancels.
	if e.detectDoubleFlick(now) {
		e.mode = ModeIdle
		e.clearHistory()
		return CancelToIdle, true
	}

	elapsed := now.Sub(e.cmdStart)
	readyDelay := e.tuning.ReadyDelay
	if e.enteredViaRearm {
		readyDelay = e.tuning.RearmReadyDelay
	}
	if elapsed < readyDelay {
		return "", false
	}
	if !e.readyAnnounced {
		e.readyAnnounced = true
		return ReadyForGesture, true
	}

	if elapsed > e.tuning.CommandTimeout {
		e.mode = ModeIdle
		e.clearHistory()
		return CommandTimeout, true
	}

	if !e.lastCommand.IsZero() && now.Sub(e.lastCommand) < e.tuning.Cooldown {
		return "", false
	}

	if !e.updateBaseline() {
		return "", false
	}

	// twist first: its angular-rate signature is much harder to confuse
	if ev, ok := e.detectTwist(now); ok {
		e.gestureFired(now)
		return ev, true
	}
	if ev, ok := e.detectSwipe(now); ok {
		e.gestureFired(now)
		return ev, true
	}
	return "", false
}
