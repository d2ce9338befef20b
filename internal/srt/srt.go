// Package srt parses and renders SubRip subtitle text.
//
// Parsing is deliberately lenient: a block whose timestamp line cannot be
// read is skipped and reported, never fatal, so one garbled block does not
// discard an otherwise usable window transcript.
package srt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Segment is one timed subtitle cue. Times are relative to whatever clock
// the source text used: window-local when parsed from a backend result,
// global after merging.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// timestampRe matches "HH:MM:SS,mmm --> HH:MM:SS,mmm".
var timestampRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*$`)

// Parse reads SRT content into ordered segments.
//
// Each block is an optional index line, a timestamp line, then one or more
// text lines joined with a single space (indices are discarded; Render
// re-numbers). Blocks missing a valid timestamp line, or with end <= start,
// are skipped and returned as errors wrapping ErrMalformedBlock.
func Parse(content string) ([]Segment, []error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var (
		segments  []Segment
		malformed []error
	)
	for blockNum, block := range strings.Split(content, "\n\n") {
		lines := splitBlockLines(block)
		if len(lines) == 0 {
			continue
		}

		seg, err := parseBlock(lines)
		if err != nil {
			malformed = append(malformed, fmt.Errorf("block %d: %w", blockNum+1, err))
			continue
		}
		segments = append(segments, seg)
	}

	return segments, malformed
}

// splitBlockLines returns the trimmed, non-empty lines of one block.
func splitBlockLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseBlock converts one block's lines into a segment.
// The timestamp line is located by pattern rather than position so blocks
// without an index line still parse.
func parseBlock(lines []string) (Segment, error) {
	for i, line := range lines {
		matches := timestampRe.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		start := clock(matches[1], matches[2], matches[3], matches[4])
		end := clock(matches[5], matches[6], matches[7], matches[8])
		if end <= start {
			return Segment{}, fmt.Errorf("%w: end %s not after start %s",
				ErrMalformedBlock, FormatTimestamp(end), FormatTimestamp(start))
		}

		return Segment{
			Start: start,
			End:   end,
			Text:  strings.Join(lines[i+1:], " "),
		}, nil
	}

	return Segment{}, fmt.Errorf("%w: no timestamp line in %q", ErrMalformedBlock, strings.Join(lines, " / "))
}

// clock converts matched timestamp components to a duration.
// Components are pre-validated by the regexp, so conversion cannot fail.
func clock(hours, minutes, seconds, millis string) time.Duration {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	ms, _ := strconv.Atoi(millis)

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}

// FormatTimestamp renders a duration as an SRT timestamp (HH:MM:SS,mmm).
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// Render writes segments as numbered SRT blocks with 1-based sequential
// indices and a blank line between blocks. It is total: any segment slice
// renders, including an empty one (which yields an empty string).
func Render(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n",
			i+1,
			FormatTimestamp(seg.Start),
			FormatTimestamp(seg.End),
			seg.Text)
	}
	return b.String()
}
