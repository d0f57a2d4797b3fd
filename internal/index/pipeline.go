package index

import (
	"context"
	"fmt"
	"os"

	"coderag/internal/chunkstore"
	"coderag/internal/walker"
)

func runPipeline(ctx context.Context, root string, idx *Indexer) (*Stats, error) {
	var stats Stats

	// Stage 1: walk and chunk, in discovery order.
	records, err := idx.collect(ctx, root, &stats)
	if err != nil {
		return &stats, err
	}
	stats.ChunksTotal = len(records)

	// Stage 2: ids already stored.
	snap := idx.store.GetAll(ctx)
	switch snap.State {
	case chunkstore.StateUnavailable:
		idx.logger.Warn("stored records unavailable, indexing everything", "error", snap.Err)
	case chunkstore.StateReady:
		idx.logger.Info("resuming", "stored", len(snap.Entries))
	}
	processed := snap.IDs()

	// Stage 3: embed and store new records batch by batch.
	batchSize := idx.store.BatchSize()
	for start := 0; start < len(records); start += batchSize {
		if err := ctx.Err(); err != nil {
			return &stats, err
		}
		end := min(start+batchSize, len(records))

		fresh := make([]chunkstore.Record, 0, end-start)
		for _, r := range records[start:end] {
			if _, ok := processed[r.ID]; ok {
				stats.ChunksSkipped++
				continue
			}
			processed[r.ID] = struct{}{}
			fresh = append(fresh, r)
		}
		if len(fresh) > 0 {
			if err := idx.store.Add(ctx, fresh); err != nil {
				return &stats, fmt.Errorf("add batch at record %d: %w", start, err)
			}
			stats.ChunksAdded += len(fresh)
			stats.Batches++
		}
		idx.progress("embed", end, len(records))
	}

	idx.logger.Info("indexing complete",
		"files", stats.FilesTotal,
		"failed", stats.FilesFailed,
		"chunks", stats.ChunksTotal,
		"added", stats.ChunksAdded,
		"skipped", stats.ChunksSkipped,
	)
	return &stats, nil
}

// collect walks root and returns the records of every file. Unreadable files
// are logged and counted; they never stop the run.
func (idx *Indexer) collect(ctx context.Context, root string, stats *Stats) ([]chunkstore.Record, error) {
	fileCh, walkErrCh := walker.Walk(ctx, root, walker.Options{
		Extensions: idx.registry.Extensions(idx.config.Languages...),
		Exclude:    idx.config.Exclude,
		Logger:     idx.logger,
	})

	var records []chunkstore.Record
	for fi := range fileCh {
		stats.FilesTotal++

		src, err := os.ReadFile(fi.Path)
		if err != nil {
			idx.logger.Error("read file", "path", fi.RelPath, "error", err)
			stats.FilesFailed++
			continue
		}
		units, err := idx.chunker.Chunk(ctx, fi.RelPath, src)
		if err != nil {
			idx.logger.Error("chunk file", "path", fi.RelPath, "error", err)
			stats.FilesFailed++
			continue
		}
		records = append(records, chunkstore.NewRecords(units)...)
		idx.progress("chunk", stats.FilesTotal, 0)
	}

	if err := <-walkErrCh; err != nil {
		return nil, fmt.Errorf("walk error: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
