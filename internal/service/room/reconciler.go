package room

import (
	"math"
	"time"
)

type Verdict int

const (
	// VerdictSuppressed marks a sample arriving inside the cool-down window
	// after a broadcast. It is almost certainly the client echoing the state
	// it was just told about.
	VerdictSuppressed Verdict = iota
	// VerdictIntentional marks a sample far enough from the expected position
	// to be a deliberate seek.
	VerdictIntentional
	// VerdictInformational marks ordinary playback drift.
	VerdictInformational
)

func (v Verdict) String() string {
	switch v {
	case VerdictSuppressed:
		return "suppressed"
	case VerdictIntentional:
		return "intentional"
	case VerdictInformational:
		return "informational"
	}

	return "unknown"
}

// reconciler classifies client position samples against a shadow of the last
// broadcast state. It is not safe for concurrent use; the owning roomHandle
// serializes access.
type reconciler struct {
	seekThreshold float64
	coolDown      time.Duration

	lastPosition  float64
	lastPlaying   bool
	lastBroadcast time.Time
}

func newReconciler(seekThreshold float64, coolDown time.Duration) *reconciler {
	return &reconciler{
		seekThreshold: seekThreshold,
		coolDown:      coolDown,
	}
}

// markBroadcast records an outgoing broadcast. Every state push to the room
// must go through this, otherwise the next echo from a client would look like
// a seek and bounce back as another broadcast.
func (r *reconciler) markBroadcast(position float64, at time.Time, playing bool) {
	r.lastPosition = position
	r.lastPlaying = playing
	r.lastBroadcast = at
}

func (r *reconciler) classify(position float64, at time.Time) Verdict {
	if !r.lastBroadcast.IsZero() && at.Sub(r.lastBroadcast) < r.coolDown {
		return VerdictSuppressed
	}

	if math.Abs(position-r.expected(at)) >= r.seekThreshold {
		return VerdictIntentional
	}

	return VerdictInformational
}

// expected is where playback should be at the given moment assuming the room
// kept playing linearly since the last broadcast.
func (r *reconciler) expected(at time.Time) float64 {
	if !r.lastPlaying {
		return r.lastPosition
	}

	return r.lastPosition + at.Sub(r.lastBroadcast).Seconds()
}
