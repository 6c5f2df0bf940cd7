// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildConfigDefaults(t *testing.T) {
	require := require.New(t)

	fs := BuildFlagSet()
	v, err := BuildViper(fs, nil)
	require.NoError(err)

	cfg, err := BuildConfig(v)
	require.NoError(err)
	require.Equal(uint64(64), cfg.BlockSize)
	require.Equal(8, cfg.MaxBlocksPerPartition)
	require.Equal(0, cfg.SharedPoolCapacity)
	require.Equal("info", cfg.LogLevel)
	require.False(cfg.LogJSON)
}

func TestBuildConfigFromFlags(t *testing.T) {
	require := require.New(t)

	fs := BuildFlagSet()
	v, err := BuildViper(fs, []string{
		"--" + BlockSizeKey, "128",
		"--" + MaxBlocksPerPartitionKey, "4",
		"--" + LogJSONKey,
	})
	require.NoError(err)

	cfg, err := BuildConfig(v)
	require.NoError(err)
	require.Equal(uint64(128), cfg.BlockSize)
	require.Equal(4, cfg.MaxBlocksPerPartition)
	require.True(cfg.LogJSON)
}

func TestBuildConfigRejectsZeroBlockSize(t *testing.T) {
	require := require.New(t)

	fs := BuildFlagSet()
	v, err := BuildViper(fs, []string{"--" + BlockSizeKey, "0"})
	require.NoError(err)

	_, err = BuildConfig(v)
	require.Error(err)
}
