package usecase

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	// DefaultRetryCount is the number of retries for read-only API calls
	DefaultRetryCount = uint64(getRetryCountOrDefault("BUILDWIZARD_RETRY_COUNT", 3, 1))
	// DefaultRetryDelay is the initial delay for exponential backoff
	DefaultRetryDelay = getDurationOrDefault("BUILDWIZARD_RETRY_DELAY", 1*time.Second, 10*time.Millisecond)
)

// Merge methods accepted by the pulls API.
const (
	MergeMethodMerge  = "merge"
	MergeMethodSquash = "squash"
	MergeMethodRebase = "rebase"
)

// isTestEnvironment detects if we're running in a test binary
func isTestEnvironment() bool {
	for _, arg := range os.Args {
		if strings.HasSuffix(arg, ".test") || strings.Contains(arg, "-test.") {
			return true
		}
	}
	return os.Getenv("GO_TEST") == "true"
}

func getDurationOrDefault(envVar string, prodDefault, testDefault time.Duration) time.Duration {
	if env := os.Getenv(envVar); env != "" {
		if duration, err := time.ParseDuration(env); err == nil {
			return duration
		}
	}
	if isTestEnvironment() {
		return testDefault
	}
	return prodDefault
}

func getRetryCountOrDefault(envVar string, prodDefault, testDefault int) int {
	if env := os.Getenv(envVar); env != "" {
		if count, err := strconv.Atoi(env); err == nil && count >= 0 {
			return count
		}
	}
	if isTestEnvironment() {
		return testDefault
	}
	return prodDefault
}
