package env

import "os"

func IsGithubAction() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// IsConcurrencyLockDisabled reports whether the per-repository merge lock should be skipped,
// e.g. when an outer tool already serialises merges against the repository.
func IsConcurrencyLockDisabled() bool {
	return os.Getenv("SKILLMERGE_CONCURRENCY_LOCK_DISABLED") == "true"
}
