package merging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.yaml")
	writeFile(t, planPath, `files:
  - target: skills/review/SKILL.md
    base: .skills/base/review/SKILL.md
    incoming: /abs/incoming/review/SKILL.md
`)

	plan, err := LoadPlan(planPath)
	require.NoError(t, err)
	require.Len(t, plan.Files, 1)

	assert.Equal(t, SkillFile{
		Target:   filepath.Join(dir, "skills", "review", "SKILL.md"),
		Base:     filepath.Join(dir, ".skills", "base", "review", "SKILL.md"),
		Incoming: "/abs/incoming/review/SKILL.md",
	}, plan.Files[0])
}

func TestLoadPlan_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "empty", content: "files: []\n", wantErr: "lists no files"},
		{name: "malformed", content: "files: [\n", wantErr: "failed to parse plan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			writeFile(t, path, tt.content)

			_, err := LoadPlan(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadPlan(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read plan")
}
