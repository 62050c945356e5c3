package diff

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformed marks an unparsable patch for a single file. Callers skip the
// file rather than aborting the whole PR.
var ErrMalformed = errors.New("malformed diff")

// Matches: @@ -oldStart[,oldLines] +newStart[,newLines] @@ optional section
var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParsePatch parses the unified-diff patch of a single file into its ordered
// hunks. Line counters start at the values declared by each hunk header:
// context lines advance both counters, added lines only the new one, removed
// lines only the old one.
//
// A patch with an unparsable hunk header or an unrecognized line marker
// returns an error wrapping ErrMalformed; callers skip the file
// rather than aborting the whole PR.
func ParsePatch(patch string) ([]Hunk, error) {
	var hunks []Hunk
	var current *Hunk
	oldLine, newLine := 0, 0

	for _, raw := range strings.Split(patch, "\n") {
		if strings.HasPrefix(raw, "@@") {
			matches := hunkHeaderRegex.FindStringSubmatch(raw)
			if matches == nil {
				return nil, fmt.Errorf("%w: bad hunk header %q", ErrMalformed, raw)
			}
			if current != nil {
				hunks = append(hunks, *current)
			}
			current = &Hunk{
				OldStart: atoiOr(matches[1], 0),
				OldLines: atoiOr(matches[2], 1),
				NewStart: atoiOr(matches[3], 0),
				NewLines: atoiOr(matches[4], 1),
			}
			oldLine = current.OldStart
			newLine = current.NewStart
			continue
		}

		if current == nil {
			// Preamble before the first hunk (---/+++ headers etc.)
			continue
		}

		switch {
		case strings.HasPrefix(raw, "+"):
			current.Lines = append(current.Lines, Line{
				Kind:    LineAdded,
				NewLine: newLine,
				Text:    raw[1:],
			})
			newLine++
		case strings.HasPrefix(raw, "-"):
			current.Lines = append(current.Lines, Line{
				Kind:    LineRemoved,
				OldLine: oldLine,
				Text:    raw[1:],
			})
			oldLine++
		case strings.HasPrefix(raw, " "):
			current.Lines = append(current.Lines, Line{
				Kind:    LineContext,
				OldLine: oldLine,
				NewLine: newLine,
				Text:    raw[1:],
			})
			oldLine++
			newLine++
		case raw == "":
			// trailing newline at end of patch
		case strings.HasPrefix(raw, `\`):
			// "\ No newline at end of file"
		default:
			return nil, fmt.Errorf("%w: unrecognized line marker %q", ErrMalformed, raw)
		}
	}

	if current != nil {
		hunks = append(hunks, *current)
	}
	return hunks, nil
}

// ParseFiles parses a per-file patch set into FileDiffs, skipping files whose
// patch is malformed. The skipped paths are returned so the caller can log
// them. Files with an empty patch (binary files, renames) are dropped
// silently since they have no commentable lines. Files come back sorted by
// path so analysis and comment order are stable across runs.
func ParseFiles(patches map[string]string) (files []FileDiff, skipped []string) {
	paths := make([]string, 0, len(patches))
	for path := range patches {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		patch := patches[path]
		if patch == "" {
			continue
		}
		hunks, err := ParsePatch(patch)
		if err != nil {
			skipped = append(skipped, path)
			continue
		}
		files = append(files, FileDiff{Path: path, Hunks: hunks})
	}
	return files, skipped
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
