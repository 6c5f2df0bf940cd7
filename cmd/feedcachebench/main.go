// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command feedcachebench is a synthetic writer/reader load generator for
// the feed cache: it drives Add/Get against a configurable number
// of partitions, giving the config/logging/metrics stack a runnable entry
// point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/luxfi/feedcache/internal/config"
	"github.com/luxfi/feedcache/internal/debugflags"
	"github.com/luxfi/feedcache/log"
)

func main() {
	fs := config.BuildFlagSet()
	fs.AddFlagSet(debugflags.Flags())
	fs.AddFlagSet(loadFlags())

	v, err := config.BuildViper(fs, os.Args[1:])
	if err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.BuildConfig(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := debugflags.Setup(v, cfg.LogLevel, cfg.LogJSON); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Info("starting feedcachebench",
		"blockSize", cfg.BlockSize,
		"maxBlocksPerPartition", cfg.MaxBlocksPerPartition,
		"sharedPoolCapacity", cfg.SharedPoolCapacity,
	)

	if err := run(context.Background(), cfg, v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
