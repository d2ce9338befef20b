// Package timeline shifts per-window transcripts onto the shared job
// clock. It only establishes ordering: duplicates introduced by the
// deliberate window overlap are expected here and removed by the fusion
// package.
package timeline

import (
	"slices"
	"time"

	"github.com/valentin-gosselin/whisper-studio/internal/plan"
	"github.com/valentin-gosselin/whisper-studio/internal/srt"
)

// Segment is a subtitle cue on the global job clock.
type Segment struct {
	Start  time.Duration
	End    time.Duration
	Text   string
	Window int // index of the window that produced the cue
}

// Merge shifts each window's segments into global time and concatenates
// them in window order. windows and transcripts are parallel slices; a
// degraded window contributes a nil transcript.
//
// The result is stable-sorted by start time, ties broken by source window
// ascending, which preserves each window's internal order.
func Merge(windows []plan.Window, transcripts [][]srt.Segment) []Segment {
	var merged []Segment
	for i, w := range windows {
		if i >= len(transcripts) {
			break
		}
		for _, seg := range transcripts[i] {
			merged = append(merged, Segment{
				Start:  w.Start + seg.Start,
				End:    w.Start + seg.End,
				Text:   seg.Text,
				Window: w.Index,
			})
		}
	}

	slices.SortStableFunc(merged, func(a, b Segment) int {
		if a.Start != b.Start {
			if a.Start < b.Start {
				return -1
			}
			return 1
		}
		return a.Window - b.Window
	})

	return merged
}
