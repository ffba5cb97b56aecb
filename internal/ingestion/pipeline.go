// Package ingestion implements C5: turning a knowledge base's raw files
// into embedded, upserted vector points. Grounded on the teacher's
// internal/knowledge/queue/worker.go for the pool-scheduled, per-file,
// partial-failure-tolerant shape, generalized from a single-document
// Redis queue consumer into a synchronous multi-file pipeline that a
// worker-pool task invokes per job.
package ingestion

import (
	"context"
	"fmt"
	"os"
	"time"

	"ragcore/internal/chunker"
	"ragcore/internal/embedding"
	"ragcore/internal/loader"
	"ragcore/internal/vectorstore"

	"github.com/google/uuid"
)

// FileRef is one file to ingest, already known to the caller's metadata
// store (C6) with a stable ID.
type FileRef struct {
	ID   string
	Path string
}

// Job describes one ingest(kb, file_paths) call.
type Job struct {
	KBID           string
	CollectionName string
	ChunkConfig    chunker.Config
	Files          []FileRef
	Force          bool // delete-and-full-rescan re-index
}

// Report is the outcome of one Ingest call, per SPEC_FULL.md §4.5.
type Report struct {
	DocumentsLoaded int
	ChunksCreated   int
	VectorsUploaded int
	FailedFiles     []string
	Errors          []string
	TotalSeconds    float64
	Timestamp       time.Time
}

// FileRecord is what Tracker knows about a previously ingested file, used
// for incremental (mtime-based) re-index skipping.
type FileRecord struct {
	MTime time.Time
}

// Tracker is C6's slice of the contract C5 needs: file status transitions
// and KB counters (§4.5 step 6), plus the (path, mtime) bookkeeping
// incremental mode depends on. Defined here, not in the metadata-store
// package, so C5 has no import-time dependency on C6 — C7 wires the two
// together.
type Tracker interface {
	FindByPath(ctx context.Context, kbID, path string) (*FileRecord, bool, error)
	MarkParsing(ctx context.Context, fileID string) error
	MarkPersisting(ctx context.Context, fileID string) error
	MarkSucceeded(ctx context.Context, fileID string, chunkCount int) error
	MarkFailed(ctx context.Context, fileID string, reason string) error
	IncrementKBCounters(ctx context.Context, kbID string, documentsDelta, chunksDelta int) error
}

// Pipeline holds the process-wide singletons C5 drives: the loader
// registry, the embedding client, and the vector store client (§5:
// "C1, C2 clients are process-wide singletons constructed once at
// startup and injected").
type Pipeline struct {
	loaders  *loader.Registry
	embed    embedding.Client
	vectors  vectorstore.Store
	tracker  Tracker
}

func New(loaders *loader.Registry, embed embedding.Client, vectors vectorstore.Store, tracker Tracker) *Pipeline {
	return &Pipeline{loaders: loaders, embed: embed, vectors: vectors, tracker: tracker}
}

// Ingest runs job's files through load -> chunk -> embed -> upsert,
// per file, never letting one file's failure abort its siblings.
func (p *Pipeline) Ingest(ctx context.Context, job Job) (*Report, error) {
	start := time.Now()
	report := &Report{Timestamp: start}

	if job.Force {
		if err := p.vectors.DeleteCollection(ctx, job.CollectionName); err != nil {
			return nil, fmt.Errorf("delete collection for full re-index: %w", err)
		}
		if err := p.vectors.EnsureCollection(ctx, job.CollectionName, p.embed.Dimension()); err != nil {
			return nil, fmt.Errorf("recreate collection for full re-index: %w", err)
		}
	}

	for _, f := range job.Files {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		p.ingestOne(ctx, job, f, report)
	}

	report.TotalSeconds = time.Since(start).Seconds()
	return report, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, job Job, f FileRef, report *Report) {
	fail := func(reason string) {
		report.FailedFiles = append(report.FailedFiles, f.Path)
		report.Errors = append(report.Errors, reason)
		if err := p.tracker.MarkFailed(ctx, f.ID, reason); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("mark %s failed: %v", f.Path, err))
		}
	}

	stat, err := os.Stat(f.Path)
	if err != nil {
		fail(fmt.Sprintf("stat %s: %v", f.Path, err))
		return
	}

	if !job.Force {
		if existing, found, err := p.tracker.FindByPath(ctx, job.KBID, f.Path); err == nil && found {
			if !stat.ModTime().After(existing.MTime) {
				return // unchanged since last successful ingest, skip
			}
		}
	}

	if err := p.tracker.MarkParsing(ctx, f.ID); err != nil {
		fail(fmt.Sprintf("mark %s parsing: %v", f.Path, err))
		return
	}

	docs, err := p.loaders.Load(ctx, f.Path)
	if err != nil {
		fail(fmt.Sprintf("load %s: %v", f.Path, err))
		return
	}
	report.DocumentsLoaded += len(docs)

	inputs := make([]chunker.Input, len(docs))
	for i, d := range docs {
		inputs[i] = chunker.Input{Source: f.Path, Content: d.Content}
	}
	chunks, err := chunker.Split(ctx, inputs, job.ChunkConfig)
	if err != nil {
		fail(fmt.Sprintf("chunk %s: %v", f.Path, err))
		return
	}
	if len(chunks) == 0 {
		if err := p.tracker.MarkSucceeded(ctx, f.ID, 0); err != nil {
			fail(fmt.Sprintf("mark %s succeeded: %v", f.Path, err))
		}
		return
	}

	if err := p.tracker.MarkPersisting(ctx, f.ID); err != nil {
		fail(fmt.Sprintf("mark %s persisting: %v", f.Path, err))
		return
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := p.embed.EmbedDocuments(ctx, texts)
	if err != nil {
		fail(fmt.Sprintf("embed %s: %v", f.Path, err))
		return
	}

	loaderMeta := mergeLoaderMetadata(docs)
	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		payload := map[string]interface{}{
			"text":        c.Content,
			"source":      f.Path,
			"file_id":     f.ID,
			"kb_id":       job.KBID,
			"chunk_index": c.ChunkIndex,
		}
		for k, v := range loaderMeta {
			if _, exists := payload[k]; !exists {
				payload[k] = v
			}
		}
		points[i] = vectorstore.Point{ID: uuid.NewString(), Vector: vectors[i], Payload: payload}
	}

	if err := p.vectors.Upsert(ctx, job.CollectionName, points); err != nil {
		fail(fmt.Sprintf("upsert %s: %v", f.Path, err))
		return
	}

	report.ChunksCreated += len(chunks)
	report.VectorsUploaded += len(points)

	if err := p.tracker.MarkSucceeded(ctx, f.ID, len(chunks)); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("mark %s succeeded: %v", f.Path, err))
		return
	}
	if err := p.tracker.IncrementKBCounters(ctx, job.KBID, 1, len(chunks)); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("update kb counters for %s: %v", f.Path, err))
	}
}

// mergeLoaderMetadata folds every loaded document's metadata into one map
// for the vector payload's loader_metadata... spread, last document wins
// on key collisions (mirrors how a single-file, multi-page load like PDF
// still only produces one payload spread per chunk).
func mergeLoaderMetadata(docs []loader.Document) map[string]interface{} {
	out := map[string]interface{}{}
	for _, d := range docs {
		for k, v := range d.Metadata {
			out[k] = v
		}
	}
	return out
}
