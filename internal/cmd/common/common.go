// Package common provides the logging setup and startup sequence shared by
// the flowleek commands.
package common

import (
	"bytes"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/CompassSecurity/flowleek/pkg/format"
	"github.com/CompassSecurity/flowleek/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version information - set via ldflags during build
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Log configuration
var (
	originalTermState *term.State
	JsonLogoutput     bool
	LogFile           string
	LogColor          bool
	LogDebug          bool
	LogLevel          string
)

// TerminalRestorer is a function that can be called to restore terminal state
var TerminalRestorer func()

// CustomWriter wraps an os.File with proper cross-platform newline handling
type CustomWriter struct {
	Writer *os.File
}

func (cw *CustomWriter) Write(p []byte) (n int, err error) {
	originalLen := len(p)

	p = bytes.TrimSuffix(p, []byte("\n"))

	// necessary as to: https://github.com/rs/zerolog/blob/master/log.go#L474
	newlineChars := []byte("\n")
	if runtime.GOOS == "windows" {
		newlineChars = []byte("\n\r")
	}

	modified := append(p, newlineChars...)

	written, err := cw.Writer.Write(modified)
	if err != nil {
		return 0, err
	}

	if written != len(modified) {
		return 0, io.ErrShortWrite
	}

	return originalLen, nil
}

// FatalHook is a zerolog hook that restores terminal state before fatal exits
type FatalHook struct{}

func (h FatalHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level == zerolog.FatalLevel {
		if TerminalRestorer != nil {
			TerminalRestorer()
		}
	}
}

// SaveTerminalState saves the current terminal state for later restoration
func SaveTerminalState() {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		state, err := term.GetState(int(os.Stdin.Fd()))
		if err == nil {
			originalTermState = state
		}
	}
}

// RestoreTerminalState restores the terminal to its saved state
func RestoreTerminalState() {
	if originalTermState != nil {
		_ = term.Restore(int(os.Stdin.Fd()), originalTermState)
	}
}

// InitLogger initializes the zerolog logger with the configured options.
// Logs go to stderr so stdout stays free for the sanitized workflow.
func InitLogger(cmd *cobra.Command) {
	defaultOut := &CustomWriter{Writer: os.Stderr}
	colorEnabled := LogColor && term.IsTerminal(int(os.Stderr.Fd()))

	if LogFile != "" {
		// #nosec G304 - User-provided log file path via --logfile flag, user controls their own filesystem
		runLogFile, err := os.OpenFile(
			LogFile,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY,
			format.FileUserReadWrite,
		)
		if err != nil {
			panic(err)
		}
		defaultOut = &CustomWriter{Writer: runLogFile}

		rootFlags := cmd.Root().PersistentFlags()
		if !rootFlags.Changed("color") {
			colorEnabled = false
		}
	}

	hitWriter := logging.NewHitLevelWriter(defaultOut)
	if !JsonLogoutput {
		// HitLevelWriter rewrites the JSON entry before ConsoleWriter renders it
		hitWriter.SetOutput(&zerolog.ConsoleWriter{
			Out:         defaultOut,
			TimeFormat:  time.RFC3339,
			NoColor:     !colorEnabled,
			FormatLevel: formatLevelWithHitColor(colorEnabled),
		})
	}
	logging.SetGlobalHitWriter(hitWriter)
	log.Logger = zerolog.New(hitWriter).With().Timestamp().Logger().Hook(FatalHook{})
}

// formatLevelWithHitColor returns a custom level formatter that adds a distinct color for the "hit" level.
func formatLevelWithHitColor(colorEnabled bool) zerolog.Formatter {
	return func(i interface{}) string {
		level, ok := i.(string)
		if !ok {
			return ""
		}

		if !colorEnabled {
			return level
		}

		switch level {
		case "hit":
			return "\x1b[35m" + level + "\x1b[0m"
		case "trace":
			return "\x1b[90m" + level + "\x1b[0m"
		case "info":
			return "\x1b[32m" + level + "\x1b[0m"
		case "warn":
			return "\x1b[33m" + level + "\x1b[0m"
		case "error", "fatal", "panic":
			return "\x1b[31m" + level + "\x1b[0m"
		default:
			return level
		}
	}
}

// SetGlobalLogLevel sets the global log level based on the configured options
func SetGlobalLogLevel(cmd *cobra.Command) {
	if LogLevel != "" {
		level, err := logging.ParseLevel(LogLevel)
		if err != nil || level == zerolog.NoLevel {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			log.Warn().Str("logLevelSpecified", LogLevel).Msg("Invalid log level, defaulting to info")
			return
		}
		zerolog.SetGlobalLevel(level)
		log.Debug().Str("level", LogLevel).Msg("Log level set (explicit)")
		return
	}

	if LogDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Debug().Msg("Log level set to debug (-v)")
		return
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// AddCommonFlags adds the common logging and output flags to a cobra command
func AddCommonFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&JsonLogoutput, "json", "", false, "Use JSON as log output format")
	cmd.PersistentFlags().StringVarP(&LogFile, "logfile", "l", "", "Log output to a file")
	cmd.PersistentFlags().BoolVarP(&LogDebug, "verbose", "v", false, "Enable debug logging (shortcut for --log-level=debug)")
	cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Set log level globally (debug, info, warn, error, hit). Example: --log-level=hit")
	cmd.PersistentFlags().BoolVar(&LogColor, "color", true, "Enable colored log output (auto-disabled when using --logfile)")
}

// SetupPersistentPreRun sets up the PersistentPreRun handler for logging initialization
func SetupPersistentPreRun(cmd *cobra.Command) {
	cmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		InitLogger(c)
		SetGlobalLogLevel(c)
	}
}

// Run executes the common startup sequence and runs the provided root command
func Run(rootCmd *cobra.Command) {
	SaveTerminalState()
	defer RestoreTerminalState()

	TerminalRestorer = RestoreTerminalState

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
