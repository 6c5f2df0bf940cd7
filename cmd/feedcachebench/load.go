// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"sync"

	"github.com/luxfi/geth/metrics"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/feedcache/feed"
	"github.com/luxfi/feedcache/feedmetrics"
	"github.com/luxfi/feedcache/internal/config"
	"github.com/luxfi/feedcache/log"
	"github.com/luxfi/feedcache/storage"
)

const (
	partitionsKey   = "partitions"
	recordsKey      = "records"
	storageBytesKey = "storage-bytes"
)

func loadFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("load", pflag.ContinueOnError)
	fs.Int(partitionsKey, 4, "number of partitions to drive load against")
	fs.Int(recordsKey, 10000, "number of ascending records to write per partition")
	fs.Int(storageBytesKey, 16<<20, "byte size of the per-partition storage stand-in")
	return fs
}

// run drives partitions concurrent writer/reader pairs: each writer appends
// records in ascending order while a reader concurrently reads each id once,
// also in ascending order, falling through to the storage stand-in on a
// miss.
func run(ctx context.Context, cfg config.Config, v *viper.Viper) error {
	metrics.Enable()
	m := feedmetrics.New()
	sp := feed.NewSharedPool(feed.SharedPoolConfig{
		BlockSize:             cfg.BlockSize,
		MaxBlocksPerPartition: cfg.MaxBlocksPerPartition,
		SharedPoolCapacity:    cfg.SharedPoolCapacity,
		Metrics:               m,
	})

	partitions := v.GetInt(partitionsKey)
	records := v.GetInt(recordsKey)
	storageBytes := v.GetInt(storageBytesKey)

	var wg sync.WaitGroup
	for p := 0; p < partitions; p++ {
		wg.Add(1)
		go func(partitionID int32) {
			defer wg.Done()
			runPartition(ctx, sp, partitionID, records, storageBytes)
		}(int32(p))
	}
	wg.Wait()

	gathered, err := feedmetrics.NewGatherer(m).Gather()
	if err != nil {
		return err
	}
	for _, mf := range gathered {
		log.Info("metric", "name", mf.GetName(), "type", mf.GetType().String())
	}
	return nil
}

func runPartition(ctx context.Context, sp *feed.SharedPool, partitionID int32, records, storageBytes int) {
	pc, err := sp.Open(partitionID)
	if err != nil {
		log.Error("open partition failed", "partition", partitionID, "err", err)
		return
	}
	defer pc.Close()

	store := storage.New(partitionID, storageBytes)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for tid := uint64(0); tid < uint64(records); tid++ {
			var reqID feed.RequestID
			reqID[0] = byte(tid)
			rec := feed.Record{TransactionID: tid, ReqID: reqID, Header: int32(tid % 1024)}
			pc.Add(tid, rec.ReqID, rec.Header)
			store.Put(rec)
		}
	}()
	go func() {
		defer wg.Done()
		for tid := uint64(0); tid < uint64(records); tid++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if _, ok := pc.Get(tid); !ok {
				store.Get(tid) // falls through to storage on a cache miss
			}
		}
	}()
	wg.Wait()

	log.Debug("partition load complete", "partition", partitionID, "blocks", pc.NumBlocks())
}
