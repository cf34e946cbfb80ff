package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconciler_Classify(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		playing  bool
		lastPos  float64
		position float64
		after    time.Duration
		want     Verdict
	}{
		{
			name:     "echo inside cooldown",
			playing:  false,
			lastPos:  40,
			position: 40.1,
			after:    200 * time.Millisecond,
			want:     VerdictSuppressed,
		},
		{
			name:     "even a far sample is suppressed inside cooldown",
			playing:  true,
			lastPos:  10,
			position: 90,
			after:    499 * time.Millisecond,
			want:     VerdictSuppressed,
		},
		{
			name:     "drift within threshold while playing",
			playing:  true,
			lastPos:  10,
			position: 15,
			after:    5 * time.Second,
			want:     VerdictInformational,
		},
		{
			name:     "jump beyond threshold while playing",
			playing:  true,
			lastPos:  10,
			position: 22,
			after:    5 * time.Second,
			want:     VerdictIntentional,
		},
		{
			name:     "paused room expects a frozen position",
			playing:  false,
			lastPos:  30,
			position: 30.5,
			after:    10 * time.Second,
			want:     VerdictInformational,
		},
		{
			name:     "jump on a paused room",
			playing:  false,
			lastPos:  30,
			position: 34,
			after:    10 * time.Second,
			want:     VerdictIntentional,
		},
		{
			name:     "backward jump",
			playing:  true,
			lastPos:  60,
			position: 5,
			after:    2 * time.Second,
			want:     VerdictIntentional,
		},
		{
			name:     "sample exactly at threshold counts as a seek",
			playing:  false,
			lastPos:  10,
			position: 12.5,
			after:    time.Second,
			want:     VerdictIntentional,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newReconciler(2.5, 500*time.Millisecond)
			rec.markBroadcast(tt.lastPos, base, tt.playing)

			got := rec.classify(tt.position, base.Add(tt.after))

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReconciler_FirstSampleBeforeAnyBroadcast(t *testing.T) {
	rec := newReconciler(2.5, 500*time.Millisecond)

	// No broadcast recorded yet: nothing to suppress against.
	got := rec.classify(1, time.Now())

	assert.Equal(t, VerdictInformational, got)
}

func TestReconciler_RebroadcastResetsWindow(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := newReconciler(2.5, 500*time.Millisecond)

	rec.markBroadcast(10, base, true)
	assert.Equal(t, VerdictInformational, rec.classify(11, base.Add(time.Second)))

	rec.markBroadcast(11, base.Add(time.Second), true)
	assert.Equal(t, VerdictSuppressed, rec.classify(11, base.Add(1200*time.Millisecond)))
}
