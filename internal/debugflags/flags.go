// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package debugflags declares the pprof and log flags for
// cmd/feedcachebench on the same pflag/viper flagset as the cache's own
// configuration, and starts an opt-in pprof HTTP server. It builds a
// terminal-aware or file-rotating slog handler, but log.NewLogger ignores
// that handler, so those settings do not change where or how logs are
// written.
package debugflags

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // nolint: gosec
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/luxfi/feedcache/log"
)

const (
	LogFileKey    = "log-file"
	PProfKey      = "pprof"
	PProfAddrKey  = "pprof-addr"
	PProfPortKey  = "pprof-port"
)

// Flags returns the pprof/log-file flags, meant to be merged into the
// command's main pflag.FlagSet via fs.AddFlagSet(debugflags.Flags()).
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("debug", pflag.ContinueOnError)
	fs.String(LogFileKey, "", "write logs to a file instead of stderr (rotated via lumberjack)")
	fs.Bool(PProfKey, false, "enable the pprof HTTP server")
	fs.String(PProfAddrKey, "127.0.0.1", "pprof HTTP server listening interface")
	fs.Int(PProfPortKey, 6060, "pprof HTTP server listening port")
	return fs
}

// Setup validates logLevel, builds a slog handler from it, logJSON and v's
// log-file setting, installs log.NewLogger(handler) as the default logger
// and, if requested, starts the pprof server. log.NewLogger ignores the
// handler and returns the luxfi/log root logger, so the level, JSON, file
// and coloring choices do not take effect. It should run as early as
// possible in main.
func Setup(v *viper.Viper, logLevel string, logJSON bool) error {
	logFile := v.GetString(LogFileKey)

	var w io.Writer
	if logFile != "" {
		w = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	} else {
		useColor := os.Getenv("TERM") != "dumb" && isatty.IsTerminal(os.Stderr.Fd())
		if useColor {
			w = colorable.NewColorableStderr()
		} else {
			w = os.Stderr
		}
	}

	level, err := log.LvlFromString(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if logJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	// NewLogger accepts the handler for call-site parity with the
	// go-ethereum constructor of the same name; the underlying logger's
	// formatting is owned by luxfi/log itself (see log/compat.go).
	log.SetDefault(log.NewLogger(handler))

	if v.GetBool(PProfKey) {
		startPProf(fmt.Sprintf("%s:%d", v.GetString(PProfAddrKey), v.GetInt(PProfPortKey)))
	}
	return nil
}

func startPProf(address string) {
	log.Info("starting pprof server", "addr", fmt.Sprintf("http://%s/debug/pprof", address))
	go func() {
		if err := http.ListenAndServe(address, nil); err != nil {
			log.Error("pprof server failed", "err", err)
		}
	}()
}
