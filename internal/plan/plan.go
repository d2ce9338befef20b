package plan

import (
	"fmt"
	"time"

	"github.com/valentin-gosselin/whisper-studio/internal/format"
)

// Tuned window geometry for the two production strategies.
const (
	// standardWidth/standardOverlap are the default window parameters.
	// 30s windows keep backend latency low; 5s of overlap ensures words
	// spoken across a boundary land whole in at least one window.
	standardWidth   = 30 * time.Second
	standardOverlap = 5 * time.Second

	// strongHeadFirstWidth is the longer opening window used by the
	// strong-head strategy. The backend hallucinates most on cold starts,
	// so the first window gets more context and enhanced audio.
	strongHeadFirstWidth = 40 * time.Second

	// strongHeadTailWidth/strongHeadTailOverlap apply to every window
	// after the first under the strong-head strategy.
	strongHeadTailWidth   = 15 * time.Second
	strongHeadTailOverlap = 3 * time.Second
)

// Strategy names accepted by ParseStrategy and the config file.
const (
	NameStandard   = "standard"
	NameStrongHead = "strong-head"
)

// Window is a contiguous time slice of the source audio submitted as one
// transcription unit.
type Window struct {
	Index int           // Zero-based position in the plan.
	Start time.Duration // Start timestamp in the source audio.
	End   time.Duration // End timestamp in the source audio.
	First bool          // True for the opening window.
}

// Duration returns the length of this window.
func (w Window) Duration() time.Duration {
	return w.End - w.Start
}

// String returns a human-readable representation for logging.
func (w Window) String() string {
	return fmt.Sprintf("window %d: %s-%s",
		w.Index,
		format.Duration(w.Start),
		format.Duration(w.End))
}

// step holds the geometry of one strategy segment.
type step struct {
	width   time.Duration
	overlap time.Duration
}

// Strategy describes how source media is cut into transcription windows.
// A strategy is fixed per job and immutable once chosen.
type Strategy struct {
	name  string
	first step // geometry of the opening window
	tail  step // geometry of every subsequent window

	// enhancedFirstAudio marks the opening window's audio for
	// pre-processing (lead-in padding, treble boost, compression)
	// before it is handed to the backend.
	enhancedFirstAudio bool

	// enhancedAllDecoding requests the anti-hallucination decoding
	// profile on every window instead of only the first.
	enhancedAllDecoding bool
}

// Standard returns the default strategy: uniform 30s windows with 5s of
// overlap, no audio pre-processing.
func Standard() Strategy {
	return Strategy{
		name:  NameStandard,
		first: step{width: standardWidth, overlap: standardOverlap},
		tail:  step{width: standardWidth, overlap: standardOverlap},
	}
}

// StrongHead returns the strategy tuned for recordings that open with
// music or silence: a long enhanced first window, then short windows,
// with enhanced decoding throughout.
func StrongHead() Strategy {
	return Strategy{
		name:                NameStrongHead,
		first:               step{width: strongHeadFirstWidth, overlap: 0},
		tail:                step{width: strongHeadTailWidth, overlap: strongHeadTailOverlap},
		enhancedFirstAudio:  true,
		enhancedAllDecoding: true,
	}
}

// ParseStrategy resolves a strategy by name.
// Accepts "strong_head" as an alias for "strong-head".
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case NameStandard, "":
		return Standard(), nil
	case NameStrongHead, "strong_head":
		return StrongHead(), nil
	}
	return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Name returns the strategy's config-file name.
func (s Strategy) Name() string {
	return s.name
}

// EnhancedAudio reports whether the window's audio must be pre-processed
// before submission. Only the opening window of a strong-head plan
// qualifies; the property belongs to the audio fed in, not to the window
// record itself.
func (s Strategy) EnhancedAudio(w Window) bool {
	return w.First && s.enhancedFirstAudio
}

// EnhancedDecoding reports whether the window should be decoded with the
// anti-hallucination parameter set. The opening window always qualifies;
// strong-head extends it to every window.
func (s Strategy) EnhancedDecoding(w Window) bool {
	return w.First || s.enhancedAllDecoding
}

// Plan computes the ordered window sequence covering [0, total).
// Windows are contiguous with overlap: each window after the first starts
// tail-overlap seconds before its predecessor ends. The final window's end
// is clamped to total and may be shorter than nominal. Media shorter than
// one nominal window yields a single clamped window.
func (s Strategy) Plan(total time.Duration) ([]Window, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, total)
	}

	var windows []Window
	cursor := time.Duration(0)
	for i := 0; ; i++ {
		geom := s.tail
		if i == 0 {
			geom = s.first
		}

		end := min(cursor+geom.width, total)
		windows = append(windows, Window{
			Index: i,
			Start: cursor,
			End:   end,
			First: i == 0,
		})

		if end >= total {
			break
		}
		// The next window overlaps the tail of this one.
		cursor = end - s.tail.overlap
	}

	return windows, nil
}
