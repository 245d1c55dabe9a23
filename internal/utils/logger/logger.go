// Package logger provides a global logger for the application
package logger

import (
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	debug = flag.Bool("debug", false, "sets log level to debug")
	trace = flag.Bool("trace", false, "sets log level to trace")
	info  = flag.Bool("info", false, "sets log level to info (default)")
)

func initLogger() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	Configure(os.Getenv("ENVIRONMENT"))
	log.Debug().Str("level", zerolog.GlobalLevel().String()).Msg("logger initialized")
}

// Configure sets the global level for the given environment, keeping any
// level flag from the command line. Binaries call it again once the
// configuration has been loaded.
func Configure(environment string) {
	zerolog.SetGlobalLevel(Level(environment, *debug, *trace, *info))
}

// Level resolves the log level from the environment name, then lets the
// command line flags override it.
func Level(environment string, debug, trace, info bool) zerolog.Level {
	var logLevel zerolog.Level
	switch strings.ToLower(environment) {
	case "dev", "test":
		logLevel = zerolog.TraceLevel
	case "", "prod":
		logLevel = zerolog.InfoLevel
	default:
		logLevel = zerolog.InfoLevel
		log.Warn().Str("environment", environment).Msg("Unknown environment - defaulting to production log level (info and above)")
	}

	if debug {
		logLevel = zerolog.DebugLevel
	} else if trace {
		logLevel = zerolog.TraceLevel
	} else if info {
		logLevel = zerolog.InfoLevel
	}
	return logLevel
}

// Init initializes the logger with the configuration from the environment
// and command line flags.
// It sets up the global logger to use zerolog with console output.
// Binaries declare their own flags before calling it:
//
//	logger.Init() <- inside whichever main() function in your entrypoint
//
// Then, `go run ./cmd/train --debug train.ltr model.json`
func Init() {
	initLogger()
}
