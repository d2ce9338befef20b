// Package fusion removes backend hallucinations and collapses the
// duplicate cues produced by deliberate window overlap.
//
// Cleaning runs three passes over a time-sorted timeline: blocklist
// filtering, temporal-overlap fusion, and near-duplicate fusion. Fusion is
// non-destructive: the surviving text is always one input's text verbatim,
// never a synthesized combination. All passes are total and pure; input
// segments are never mutated in place.
package fusion

import (
	"time"
	"unicode/utf8"

	"github.com/valentin-gosselin/whisper-studio/internal/timeline"
)

// Empirically tuned fusion defaults. No derivation exists for these
// values; they may need recalibration per language or backend, hence
// Config rather than constants at call sites.
const (
	// DefaultOverlapThreshold is the similarity above which two
	// time-overlapping cues are judged the same utterance captured twice.
	DefaultOverlapThreshold = 0.6

	// DefaultNearThreshold is the stricter similarity required to fuse
	// cues that are close in time but do not overlap.
	DefaultNearThreshold = 0.9

	// DefaultNearWindow bounds how far apart two start times may be for
	// near-duplicate fusion to apply.
	DefaultNearWindow = 3 * time.Second
)

// Config holds the fusion tuning parameters.
type Config struct {
	OverlapThreshold float64
	NearThreshold    float64
	NearWindow       time.Duration
}

// DefaultConfig returns the production-tuned parameters.
func DefaultConfig() Config {
	return Config{
		OverlapThreshold: DefaultOverlapThreshold,
		NearThreshold:    DefaultNearThreshold,
		NearWindow:       DefaultNearWindow,
	}
}

// withDefaults fills unset fields so a zero Config behaves sensibly.
func (c Config) withDefaults() Config {
	if c.OverlapThreshold <= 0 {
		c.OverlapThreshold = DefaultOverlapThreshold
	}
	if c.NearThreshold <= 0 {
		c.NearThreshold = DefaultNearThreshold
	}
	if c.NearWindow <= 0 {
		c.NearWindow = DefaultNearWindow
	}
	return c
}

// Clean runs the full pipeline over a time-sorted timeline: blocklist
// filtering, overlap fusion, near-duplicate fusion, then an overlap clamp
// so the result has strictly increasing starts and no intersecting
// [start, end) ranges. Clean is idempotent: re-running it on its own
// output returns that output unchanged.
func Clean(segments []timeline.Segment, cfg Config) []timeline.Segment {
	cfg = cfg.withDefaults()

	out := FilterSpurious(segments)
	out = fuseOverlapping(out, cfg.OverlapThreshold)
	out = fuseNear(out, cfg.NearThreshold, cfg.NearWindow)
	out = clampOverlaps(out)
	return out
}

// FilterSpurious drops segments whose text matches the hallucination
// blocklist (Pass A). Dropped segments are discarded, not marked.
func FilterSpurious(segments []timeline.Segment) []timeline.Segment {
	out := make([]timeline.Segment, 0, len(segments))
	for _, seg := range segments {
		if Spurious(seg.Text) {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// fuseOverlapping collapses pairs of time-intersecting cues whose texts
// are similar enough to be the same utterance captured by two consecutive
// windows (Pass B). One left-to-right scan suffices: the overlap region is
// short relative to window width, so chains longer than a pair fold into
// the running fused segment.
func fuseOverlapping(segments []timeline.Segment, threshold float64) []timeline.Segment {
	out := make([]timeline.Segment, 0, len(segments))
	for _, seg := range segments {
		if len(out) > 0 {
			last := out[len(out)-1]
			if seg.Start < last.End && similar(last, seg, threshold) {
				out[len(out)-1] = fuse(last, seg)
				continue
			}
		}
		out = append(out, seg)
	}
	return out
}

// fuseNear collapses duplicate utterances that do not overlap in time but
// start within window of each other (Pass C). This catches phrases spoken
// once across a chunk boundary that fell mid-phrase without true overlap.
func fuseNear(segments []timeline.Segment, threshold float64, window time.Duration) []timeline.Segment {
	out := make([]timeline.Segment, 0, len(segments))
	for _, seg := range segments {
		if len(out) > 0 {
			last := out[len(out)-1]
			if seg.Start >= last.End && seg.Start-last.Start <= window && similar(last, seg, threshold) {
				out[len(out)-1] = fuse(last, seg)
				continue
			}
		}
		out = append(out, seg)
	}
	return out
}

// similar reports whether two cues' normalized texts meet the threshold.
func similar(a, b timeline.Segment, threshold float64) bool {
	return Similarity(Normalize(a.Text), Normalize(b.Text)) >= threshold
}

// fuse merges two cues judged to be one utterance: the result spans the
// union of their ranges and keeps the longer text verbatim (by character
// count, ties to the earlier cue). Byte length would penalize accented
// text, which costs extra bytes in UTF-8.
func fuse(a, b timeline.Segment) timeline.Segment {
	fused := timeline.Segment{
		Start:  min(a.Start, b.Start),
		End:    max(a.End, b.End),
		Text:   a.Text,
		Window: a.Window,
	}
	if utf8.RuneCountInString(b.Text) > utf8.RuneCountInString(a.Text) {
		fused.Text = b.Text
		fused.Window = b.Window
	}
	return fused
}

// clampOverlaps enforces the output invariant: strictly increasing starts
// and no intersecting [start, end) ranges. Residual overlaps between
// dissimilar cues are resolved by trimming the earlier cue's end to the
// later cue's start; a cue left with no span is dropped.
func clampOverlaps(segments []timeline.Segment) []timeline.Segment {
	out := make([]timeline.Segment, 0, len(segments))
	for _, seg := range segments {
		for len(out) > 0 {
			last := out[len(out)-1]
			if last.End <= seg.Start {
				break
			}
			if seg.Start > last.Start {
				trimmed := last
				trimmed.End = seg.Start
				out[len(out)-1] = trimmed
				break
			}
			// Identical starts with dissimilar text: the earlier cue
			// would trim to nothing, so it yields to the later one.
			out = out[:len(out)-1]
		}
		out = append(out, seg)
	}
	return out
}
