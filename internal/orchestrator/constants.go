package orchestrator

import (
	"os"
	"strings"
	"time"
)

// Timeout constants for different operations
var (
	// GitNetworkTimeout bounds each pull, push or prune step of the package wizard
	GitNetworkTimeout = getTimeoutOrDefault("BUILDWIZARD_GIT_TIMEOUT", 5*time.Minute, 5*time.Second)
)

// Menu entries appended to or offered by every step.
const (
	EntryExit = "Exit"
	EntryBack = "Back"
	AnswerYes = "Yes"
	AnswerNo  = "No"
	DebugOff  = "No debug session"
	DebugOn   = "Open a debug session on the runner"
)

// Package workflow defaults.
const (
	// DevBranchPrefix prefixes the timestamped branch created for a package build
	DevBranchPrefix = "dev"
	// DefaultBaseBranch is pulled when the current branch has no upstream
	DefaultBaseBranch = "main"
	// DefaultCommitMessage is used when no commit message is given
	DefaultCommitMessage = "chore: update package sources"
)

// isTestEnvironment detects if we're running in a test environment
func isTestEnvironment() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, ".test") || strings.Contains(arg, "-test.") {
			return true
		}
	}
	return os.Getenv("GO_TEST") == "true"
}

// getTimeoutOrDefault returns production timeout or test timeout based on environment
func getTimeoutOrDefault(envVar string, prodDefault, testDefault time.Duration) time.Duration {
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
