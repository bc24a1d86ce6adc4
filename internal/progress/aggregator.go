// Package progress converts the flashing engine's raw event stream
// into throttled, ETA-annotated notifications suitable for a UI.
//
// The raw stream may carry duplicate or tiny deltas; forwarding it
// verbatim would flood any consumer. Each operation kind gets a 0.1%
// hysteresis on reported percentage, with the 0% and 100% edges always
// delivered, which bounds callback volume to roughly a thousand
// notifications per operation while never dropping the start or finish
// transition.
package progress

import (
	"math"
	"time"

	"github.com/embedkit/probelink/internal/probe"
)

// NotifyFunc receives one throttled notification. etaMS is the
// estimated remaining time in milliseconds, or negative when unknown.
// It is invoked synchronously from the flashing call's goroutine and
// must not block or call back into the boundary.
type NotifyFunc func(op probe.Operation, percent float32, status string, etaMS int32)

// sentinel for "never reported".
const unreported = -1.0

type opState struct {
	total        uint64
	hasTotal     bool
	done         uint64
	elapsed      time.Duration
	lastReported float32
}

// Aggregator tracks the four operation kinds of one flash download
// independently. It is single-use: create one per download.
//
// Aggregator is not safe for concurrent use; the flashing engine
// delivers events from one goroutine.
type Aggregator struct {
	notify NotifyFunc
	ops    [4]opState
}

func NewAggregator(notify NotifyFunc) *Aggregator {
	a := &Aggregator{notify: notify}
	for i := range a.ops {
		a.ops[i].lastReported = unreported
	}
	return a
}

// Handle consumes one raw event.
func (a *Aggregator) Handle(ev probe.ProgressEvent) {
	op := ev.Operation
	if op < 0 || int(op) >= len(a.ops) {
		return
	}
	st := &a.ops[op]

	switch ev.Kind {
	case probe.EventAddProgressBar:
		*st = opState{
			total:        ev.Total,
			hasTotal:     ev.HasTotal,
			lastReported: unreported,
		}

	case probe.EventStarted:
		a.notify(op, 0, op.StatusText(), -1)
		st.lastReported = 0

	case probe.EventProgress:
		st.done += ev.Size
		st.elapsed += ev.Elapsed

		var pct float32
		if st.hasTotal && st.total > 0 {
			pct = float32(float64(st.done) / float64(st.total) * 100)
			if pct > 100 {
				pct = 100
			}
		}
		eta := a.eta(st)
		changed := pct-st.lastReported >= 0.1 || st.lastReported-pct >= 0.1 || pct >= 100
		if changed {
			a.notify(op, pct, op.StatusText(), eta)
			st.lastReported = pct
		}

	case probe.EventFinished:
		// Guarantee exactly one terminal 100% per started operation.
		if st.lastReported < 100 {
			a.notify(op, 100, op.StatusText(), 0)
			st.lastReported = 100
		}

	case probe.EventFailed:
		a.notify(op, 0, op.StatusText(), -1)
		st.lastReported = 0
	}
}

// eta extrapolates from the cumulative rate done/elapsed. Deliberately
// unsmoothed: early in an operation the estimate can jump.
func (a *Aggregator) eta(st *opState) int32 {
	if !st.hasTotal || st.total == 0 || st.elapsed <= 0 {
		return -1
	}
	rate := float64(st.done) / st.elapsed.Seconds()
	if rate <= 0 {
		return -1
	}
	remaining := float64(st.total - min(st.done, st.total))
	ms := remaining / rate * 1000
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(ms)
}
