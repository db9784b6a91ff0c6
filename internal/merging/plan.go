package merging

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/skillmerge/skillmerge/internal/fs"
)

// Plan is a batch of skill files to apply, usually read from a YAML file:
//
//	files:
//	  - target: skills/review/SKILL.md
//	    base: .skills/base/review/SKILL.md
//	    incoming: .skills/incoming/review/SKILL.md
type Plan struct {
	Files []SkillFile `yaml:"files"`
}

// LoadPlan reads a plan file. Relative paths inside it are resolved against the plan's directory.
func LoadPlan(path string) (*Plan, error) {
	data, err := fs.NewFileSystem().ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan %s: %w", path, err)
	}
	if len(plan.Files) == 0 {
		return nil, fmt.Errorf("plan %s lists no files", path)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	for i := range plan.Files {
		f := &plan.Files[i]
		f.Target = resolveAgainst(dir, f.Target)
		f.Base = resolveAgainst(dir, f.Base)
		f.Incoming = resolveAgainst(dir, f.Incoming)
	}

	return &plan, nil
}

func resolveAgainst(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
