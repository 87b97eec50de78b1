// Package logging builds the single *zap.Logger instance the CLI constructs
// and passes by reference as an explicit parameter (spec.md §9: "no globals
// beyond the wall-clock timer and logger"). Structured logging was not part
// of the teacher's own ambient stack (it used fmt/stdlib log), so this
// carries zap in from theRebelliousNerd-codenerd, another retrieval-pack
// repo that uses zap pervasively for the same kind of phase/decision
// logging this engine needs.
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console-encoded logger at InfoLevel, or DebugLevel when
// verbose is set (the -v flag of spec.md §6.1). Level coloring is only
// turned on when stderr is an actual terminal, so piping a run's log lines
// to a file or another process never embeds ANSI escapes.
func New(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "" // plan output goes to stdout; keep log lines terse
	if isatty.IsTerminal(os.Stderr.Fd()) {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		// zap.NewDevelopmentConfig().Build() only fails on a bad encoder/
		// output-path configuration, which is a programming error here.
		panic(err)
	}
	return logger
}

// Noop returns a logger that discards everything, for tests and library
// callers that have not configured logging.
func Noop() *zap.Logger {
	return zap.NewNop()
}
