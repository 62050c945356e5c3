// Package diff parses unified-diff patch text into a line-addressable form.
// Every line of every hunk carries its old- and new-file line numbers, which
// is what makes analyzer findings mappable onto commentable positions.
package diff

// LineKind classifies a single diff line.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

// Line is one line of a hunk. OldLine is zero for added lines and NewLine is
// zero for removed lines; context lines carry both.
type Line struct {
	Kind    LineKind
	OldLine int
	NewLine int
	Text    string
}

// Hunk is a contiguous block of changes in one region of one file.
// Immutable once parsed.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// FileDiff groups the ordered hunks of a single changed file.
type FileDiff struct {
	Path  string
	Hunks []Hunk
}

// ContainsNewLine reports whether the given new-revision line number appears
// in this hunk, either as an added line or as context.
func (h Hunk) ContainsNewLine(line int) bool {
	for _, l := range h.Lines {
		if l.Kind != LineRemoved && l.NewLine == line {
			return true
		}
	}
	return false
}

// NewLineRange returns the first and last new-revision line numbers covered
// by the hunk. ok is false when the hunk only removes lines.
func (h Hunk) NewLineRange() (first, last int, ok bool) {
	for _, l := range h.Lines {
		if l.Kind == LineRemoved {
			continue
		}
		if !ok {
			first = l.NewLine
			ok = true
		}
		last = l.NewLine
	}
	return first, last, ok
}
