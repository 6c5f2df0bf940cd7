// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the feed cache's three tunables (blockSize,
// maxBlocksPerPartition, sharedPoolCapacity): a pflag.FlagSet bound into a
// viper.Viper, materialized into a typed Config.
package config

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	BlockSizeKey             = "block-size"
	MaxBlocksPerPartitionKey = "max-blocks-per-partition"
	SharedPoolCapacityKey    = "shared-pool-capacity"
	LogLevelKey              = "log-level"
	LogJSONKey               = "log-json"

	envPrefix = "FEEDCACHE"
)

// Config is the materialized, typed form of the flag/env/file inputs.
type Config struct {
	BlockSize             uint64
	MaxBlocksPerPartition int
	SharedPoolCapacity    int
	LogLevel              string
	LogJSON               bool
}

// BuildFlagSet declares every flag this command accepts. It is built once
// per process; cmd/feedcachebench merges the debug and load flagsets into
// it before parsing.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("feedcache", pflag.ContinueOnError)
	fs.Uint64(BlockSizeKey, 64, "records per block (power of two recommended)")
	fs.Int(MaxBlocksPerPartitionKey, 8, "default per-partition block capacity")
	fs.Int(SharedPoolCapacityKey, 0, "maximum blocks in circulation across all partitions (0 = unbounded)")
	fs.String(LogLevelKey, "info", "log level: trace, debug, info, warn, error, crit")
	fs.Bool(LogJSONKey, false, "emit logs as JSON")
	return fs
}

// BuildViper parses args against fs, then binds fs into a *viper.Viper that
// also reads FEEDCACHE_* environment variables.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	return v, nil
}

// BuildConfig materializes a Config from v, using cast for defensive type
// coercion since values may have arrived from an environment variable as
// loosely-typed strings rather than through pflag's own typed accessors.
func BuildConfig(v *viper.Viper) (Config, error) {
	blockSize, err := cast.ToUint64E(v.Get(BlockSizeKey))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", BlockSizeKey, err)
	}
	if blockSize == 0 {
		return Config{}, fmt.Errorf("%s must be > 0", BlockSizeKey)
	}

	maxBlocks, err := cast.ToIntE(v.Get(MaxBlocksPerPartitionKey))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", MaxBlocksPerPartitionKey, err)
	}
	if maxBlocks <= 0 {
		return Config{}, fmt.Errorf("%s must be > 0", MaxBlocksPerPartitionKey)
	}

	capacity, err := cast.ToIntE(v.Get(SharedPoolCapacityKey))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", SharedPoolCapacityKey, err)
	}

	return Config{
		BlockSize:             blockSize,
		MaxBlocksPerPartition: maxBlocks,
		SharedPoolCapacity:    capacity,
		LogLevel:              cast.ToString(v.Get(LogLevelKey)),
		LogJSON:               cast.ToBool(v.Get(LogJSONKey)),
	}, nil
}
