package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePatch = `@@ -7,4 +7,6 @@ func main() {
 	ctx := context.Background()
-	run(ctx)
+	if err := run(ctx); err != nil {
+		log.Fatal(err)
+	}
 	cleanup()
 }
@@ -40,3 +43,4 @@ func cleanup() {
 func cleanup() {
 	closeAll()
+	flushLogs()
 }`

func TestParsePatch(t *testing.T) {
	hunks, err := ParsePatch(samplePatch)
	require.NoError(t, err)
	require.Len(t, hunks, 2)

	first := hunks[0]
	assert.Equal(t, 7, first.OldStart)
	assert.Equal(t, 4, first.OldLines)
	assert.Equal(t, 7, first.NewStart)
	assert.Equal(t, 6, first.NewLines)

	// context line carries both counters
	assert.Equal(t, LineContext, first.Lines[0].Kind)
	assert.Equal(t, 7, first.Lines[0].OldLine)
	assert.Equal(t, 7, first.Lines[0].NewLine)

	// removed line has no new-file number
	assert.Equal(t, LineRemoved, first.Lines[1].Kind)
	assert.Equal(t, 8, first.Lines[1].OldLine)
	assert.Zero(t, first.Lines[1].NewLine)

	// added lines advance only the new counter
	assert.Equal(t, LineAdded, first.Lines[2].Kind)
	assert.Equal(t, 8, first.Lines[2].NewLine)
	assert.Equal(t, 10, first.Lines[4].NewLine)

	second := hunks[1]
	assert.Equal(t, 43, second.NewStart)
	assert.True(t, second.ContainsNewLine(44))
	assert.False(t, second.ContainsNewLine(42))
}

func TestParsePatchCounterConsistency(t *testing.T) {
	// Cumulative added+context count over a hunk must equal the declared
	// newLines of its header, likewise for the old side.
	hunks, err := ParsePatch(samplePatch)
	require.NoError(t, err)

	for _, h := range hunks {
		var oldCount, newCount int
		for _, l := range h.Lines {
			if l.Kind != LineAdded {
				oldCount++
			}
			if l.Kind != LineRemoved {
				newCount++
			}
		}
		assert.Equal(t, h.OldLines, oldCount)
		assert.Equal(t, h.NewLines, newCount)
	}
}

func TestParsePatchMalformed(t *testing.T) {
	tests := []struct {
		name  string
		patch string
	}{
		{
			name:  "bad hunk header",
			patch: "@@ -x,3 +1,3 @@\n line",
		},
		{
			name:  "unknown line marker",
			patch: "@@ -1,2 +1,2 @@\n context\n?what is this",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePatch(tt.patch)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParsePatchHeaderWithoutCounts(t *testing.T) {
	// Single-line hunks may omit the count: @@ -3 +3 @@
	hunks, err := ParsePatch("@@ -3 +3 @@\n-old\n+new")
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	assert.Equal(t, 1, hunks[0].OldLines)
	assert.Equal(t, 1, hunks[0].NewLines)
	assert.Equal(t, 3, hunks[0].Lines[1].NewLine)
}

func TestParsePatchNoNewlineMarker(t *testing.T) {
	hunks, err := ParsePatch("@@ -1,1 +1,1 @@\n-old\n+new\n\\ No newline at end of file")
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	assert.Len(t, hunks[0].Lines, 2)
}

func TestParseFiles(t *testing.T) {
	files, skipped := ParseFiles(map[string]string{
		"main.go":    samplePatch,
		"broken.go":  "@@ not a header\n+x",
		"binary.png": "",
	})

	require.Len(t, files, 1)
	assert.Equal(t, "main.go", files[0].Path)
	assert.Equal(t, []string{"broken.go"}, skipped)
}

func TestParseFilesOrderIsStable(t *testing.T) {
	patches := map[string]string{
		"zz.go":  samplePatch,
		"aa.go":  samplePatch,
		"mid.go": samplePatch,
	}

	want := []string{"aa.go", "mid.go", "zz.go"}
	for range 10 {
		files, _ := ParseFiles(patches)
		require.Len(t, files, 3)
		got := []string{files[0].Path, files[1].Path, files[2].Path}
		assert.Equal(t, want, got)
	}
}

func TestNewLineRange(t *testing.T) {
	hunks, err := ParsePatch(samplePatch)
	require.NoError(t, err)

	first, last, ok := hunks[0].NewLineRange()
	require.True(t, ok)
	assert.Equal(t, 7, first)
	assert.Equal(t, 12, last)

	removeOnly := Hunk{Lines: []Line{{Kind: LineRemoved, OldLine: 5}}}
	_, _, ok = removeOnly.NewLineRange()
	assert.False(t, ok)
}
