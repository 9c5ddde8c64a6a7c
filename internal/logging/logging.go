// Package logging builds the zap logger that appends to the per-repository log file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logFileName     = "buildwizard.log"
	dirPermissions  = 0o755
	filePermissions = 0o644
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Path returns the log file for repo below dir. Each repository gets its own directory.
func Path(dir, repo string) string {
	name := unsafeChars.ReplaceAllString(repo, "_")
	if name == "" || name == "_" {
		name = "default"
	}
	return filepath.Join(dir, name, logFileName)
}

// New returns a logger appending one timestamp-prefixed line per call to the repository log
// file, plus a close function flushing and closing the file.
func New(fs afero.Fs, dir, repo string, level zapcore.Level) (*zap.Logger, func() error, error) {
	path := Path(dir, repo)
	if err := fs.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePermissions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), level)
	logger := zap.New(core)
	closeFn := func() error {
		// Sync on regular files can fail harmlessly on some platforms; the close error matters
		_ = logger.Sync()
		return f.Close()
	}
	return logger, closeFn, nil
}
