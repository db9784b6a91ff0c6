package merging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/epiclabs-io/diff3"
	"go.uber.org/zap"

	"github.com/skillmerge/skillmerge/internal/log"
)

// MergeFile runs a three-way merge of in.IncomingPath into in.CurrentPath relative to
// in.BasePath. A conflicting merge is a normal result, not an error: the current file then
// carries conflict markers and ExitCode holds the number of conflicting regions.
func MergeFile(ctx context.Context, vcs VersionControl, in MergeInputs) (MergeResult, error) {
	res, err := vcs.ThreeWayMerge(ctx, in)
	if err != nil {
		return MergeResult{}, err
	}

	if res.Clean {
		log.From(ctx).Info("merged cleanly", zap.String("path", in.CurrentPath))
	} else {
		log.From(ctx).Warn("merge produced conflicts", zap.String("path", in.CurrentPath), zap.Int("conflicts", res.ExitCode))
	}
	return res, nil
}

// TextMerger implements an in-process 3-way merge using the diff3 algorithm. Overlapping
// changes are rendered with git-style conflict markers, the base side left out.
type TextMerger struct {
	CurrentLabel  string
	IncomingLabel string
}

func NewTextMerger() *TextMerger {
	return &TextMerger{}
}

// TextMergeResult holds the merged content and the conflict regions it contains.
type TextMergeResult struct {
	Content   []byte
	Conflicts []Conflict
}

func (r *TextMergeResult) Clean() bool {
	return len(r.Conflicts) == 0
}

// Merge performs a 3-way merge of incoming into current relative to base.
func (m *TextMerger) Merge(base, current, incoming []byte) (*TextMergeResult, error) {
	// Fast paths: one side is unchanged, or both sides made the same change.
	if bytes.Equal(current, incoming) || bytes.Equal(incoming, base) {
		return &TextMergeResult{Content: current}, nil
	}
	if bytes.Equal(current, base) {
		return &TextMergeResult{Content: incoming}, nil
	}

	result, err := diff3.Merge(
		bytes.NewReader(current),
		bytes.NewReader(base),
		bytes.NewReader(incoming),
		false, // one marker block per conflicting region, as git merge-file counts them
		m.CurrentLabel,
		m.IncomingLabel,
	)
	if err != nil {
		return nil, fmt.Errorf("diff3 merge failed: %w", err)
	}

	raw, err := io.ReadAll(result.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to read merge result: %w", err)
	}

	merged := restoreLayout(raw, result.Conflicts, current, incoming)
	res := &TextMergeResult{Content: merged}
	if result.Conflicts {
		res.Conflicts = ParseConflictMarkers(merged)
	}
	return res, nil
}

// diff3 markers are nine characters wide.
const (
	diff3Opening   = "<<<<<<<<<"
	diff3Separator = "========="
	diff3Closing   = ">>>>>>>>>"
)

// restoreLayout turns diff3 output back into what git merge-file would have written. diff3
// strips line terminators, joins lines with LF and drops the final newline. Its markers
// are also rewritten to the seven-character form git rerere recognises.
func restoreLayout(raw []byte, conflicted bool, current, incoming []byte) []byte {
	if len(raw) == 0 {
		return raw
	}

	eol := "\n"
	if bytes.Contains(current, []byte("\r\n")) {
		eol = "\r\n"
	}

	lines := strings.Split(string(raw), "\n")
	endsInConflict := false
	for i, line := range lines {
		if !conflicted {
			break
		}
		switch {
		case strings.HasPrefix(line, diff3Opening+" "):
			lines[i] = ConflictMarker + strings.TrimPrefix(line, diff3Opening)
		case line == diff3Separator:
			lines[i] = separatorMarker
		case strings.HasPrefix(line, diff3Closing+" "):
			lines[i] = closingMarker + strings.TrimPrefix(line, diff3Closing)
			endsInConflict = i == len(lines)-1
		}
	}

	out := strings.Join(lines, eol)
	if endsInConflict || hasTrailingNewline(current) || hasTrailingNewline(incoming) {
		out += eol
	}
	return []byte(out)
}

func hasTrailingNewline(content []byte) bool {
	return bytes.HasSuffix(content, []byte("\n"))
}

// ParseConflictMarkers scans content for conflict regions and returns their 1-indexed
// line spans. An opening marker without a closing one is reported up to the last line.
func ParseConflictMarkers(content []byte) []Conflict {
	var conflicts []Conflict
	lines := strings.Split(string(content), "\n")

	inConflict := false
	startLine := 0

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, ConflictMarker):
			inConflict = true
			startLine = i + 1
		case strings.HasPrefix(line, closingMarker) && inConflict:
			conflicts = append(conflicts, Conflict{StartLine: startLine, EndLine: i + 1})
			inConflict = false
		}
	}

	if inConflict {
		conflicts = append(conflicts, Conflict{StartLine: startLine, EndLine: len(lines)})
	}

	return conflicts
}

// HasConflictMarker reports whether any line of content starts with a conflict marker.
func HasConflictMarker(content []byte) bool {
	if bytes.HasPrefix(content, []byte(ConflictMarker)) {
		return true
	}
	return bytes.Contains(content, []byte("\n"+ConflictMarker))
}
