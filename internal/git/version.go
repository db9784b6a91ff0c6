package git

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hashicorp/go-version"
)

// MinimumVersion is the oldest git release whose merge-file, update-index --index-info
// and rerere behaviour the exec backend relies on.
const MinimumVersion = "2.18.0"

var versionPattern = regexp.MustCompile(`git version (\d+\.\d+(?:\.\d+)?)`)

// Version returns the version of the git binary used by the runner.
func (r Runner) Version(ctx context.Context) (*version.Version, error) {
	out, err := r.Run(ctx, "", nil, "version")
	if err != nil {
		return nil, err
	}
	return ParseVersion(out)
}

// ParseVersion extracts the semantic version from `git version` output,
// e.g. "git version 2.39.3 (Apple Git-146)".
func ParseVersion(out string) (*version.Version, error) {
	m := versionPattern.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("unrecognised git version output %q", out)
	}
	return version.NewVersion(m[1])
}

// CheckMinimumVersion returns an error when v is older than MinimumVersion.
func CheckMinimumVersion(v *version.Version) error {
	minimum := version.Must(version.NewVersion(MinimumVersion))
	if v.LessThan(minimum) {
		return fmt.Errorf("git %s is older than the minimum supported version %s", v, minimum)
	}
	return nil
}
