package log

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestLogger(buf *bytes.Buffer) Logger {
	return New().WithWriter(buf).WithFormatter(PrefixedFormatter)
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newTestLogger(&buf).WithLevel(LevelWarn)

	l.Info("hidden")
	l.Warn("shown")
	l.Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN\tshown")
	assert.Contains(t, out, "ERROR\talso shown")
}

func TestLogger_FieldsRenderAsJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newTestLogger(&buf).With(zap.String("path", "skills/SKILL.md"))

	l.Info("staged conflict", zap.Int("conflicts", 2))

	assert.Equal(t, "INFO\tstaged conflict\t{\"conflicts\":2,\"path\":\"skills/SKILL.md\"}\n", buf.String())
}

func TestLogger_ErrorFieldBecomesMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Error("", zap.Error(errors.New("git merge-file failed")))

	assert.Equal(t, "ERROR\tgit merge-file failed\n", buf.String())
}

func TestLogger_ErrorFieldKeptWithMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Warn("reset failed", zap.Error(errors.New("nothing staged")))

	assert.Equal(t, "WARN\treset failed\t{\"error\":\"nothing staged\"}\n", buf.String())
}

func TestLogger_WithDoesNotMutateParent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	parent := newTestLogger(&buf)
	_ = parent.With(zap.String("a", "b"))

	parent.Info("plain")
	assert.Equal(t, "INFO\tplain\n", buf.String())
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := With(context.Background(), newTestLogger(&buf))

	From(ctx).Successf("merged %d files", 3)
	assert.Equal(t, "INFO\tmerged 3 files\n", buf.String())
}

func TestGithubFormatter(t *testing.T) {
	t.Parallel()

	l := New().WithAssociatedFile("skills/vision/SKILL.md")

	assert.Equal(t, "::warning file=skills/vision/SKILL.md::unresolved", GithubFormatter(l, LevelWarn, "unresolved", nil))
	assert.Equal(t, "::error::boom", GithubFormatter(New(), LevelErr, "boom", nil))
	assert.Equal(t, "hello", GithubFormatter(l, LevelInfo, "hello", nil))
}

func TestLogger_FormattedHelpers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Infof("%d file(s) merged", 3)
	l.Warnf("%s is older than %s", "2.17.0", "2.18.0")

	assert.Equal(t, "INFO\t3 file(s) merged\nWARN\t2.17.0 is older than 2.18.0\n", buf.String())
}

func TestLogger_WithStyleKeepsText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := newTestLogger(&buf).WithStyle(lipgloss.NewStyle())

	l.Printf("lines %d-%d", 2, 6)

	assert.Contains(t, buf.String(), "lines 2-6")
}
