// Command kbctl is the out-of-band knowledge-base administration tool,
// grounded on the teacher's cmd/clear-kb-data and cmd/sync-models — direct
// construction of the storage/vector clients without going through the HTTP
// layer, dispatched by a flat set of subcommands since the pack carries no
// CLI framework dependency.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"ragcore/internal/embedding"
	"ragcore/internal/flowlog"
	"ragcore/internal/ingestion"
	"ragcore/internal/kb"
	"ragcore/internal/loader"
	"ragcore/internal/pkg/conf"
	"ragcore/internal/pkg/database"
	"ragcore/internal/pkg/logger"
	"ragcore/internal/pkg/milvus"
	"ragcore/internal/pkg/workerpool"
	"ragcore/internal/retrieval"
	"ragcore/internal/vectorstore"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "kb":
		err = runKB(os.Args[2:])
	case "flowlog":
		err = runFlowlog(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "kbctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  kbctl kb create   -name NAME -embedding-model MODEL -embedding-dim N [-description TEXT] [-chunk-size N] [-chunk-overlap N] [-config PATH]
  kbctl kb list     [-page N] [-size N] [-config PATH]
  kbctl kb delete   -id ID [-config PATH]
  kbctl kb reindex  -id ID -file PATH [-config PATH]
  kbctl flowlog analyze -path PATH [-session ID] [-slow-threshold SECONDS] [-export-json PATH] [-export-csv PATH]`)
}

// runKB dispatches the kb subcommands. Every one of them re-wires C2/C5/C6/C7
// from scratch (no server process involved), the same pattern
// cmd/clear-kb-data uses to reach the storage layer directly.
func runKB(args []string) error {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	verb := args[0]
	args = args[1:]

	switch verb {
	case "create":
		return kbCreate(args)
	case "list":
		return kbList(args)
	case "delete":
		return kbDelete(args)
	case "reindex":
		return kbReindex(args)
	default:
		usage()
		os.Exit(1)
		return nil
	}
}

func kbCreate(args []string) error {
	fs := flag.NewFlagSet("kb create", flag.ExitOnError)
	name := fs.String("name", "", "knowledge base name (required)")
	description := fs.String("description", "", "knowledge base description")
	embeddingModel := fs.String("embedding-model", "", "embedding model name (required)")
	embeddingDim := fs.Int("embedding-dim", 0, "embedding dimension (required)")
	chunkSize := fs.Int("chunk-size", 0, "chunk size override")
	chunkOverlap := fs.Int("chunk-overlap", 0, "chunk overlap override")
	configPath := fs.String("config", "config.yaml", "config file path")
	fs.Parse(args)

	if *name == "" || *embeddingModel == "" || *embeddingDim == 0 {
		return fmt.Errorf("create requires -name, -embedding-model and -embedding-dim")
	}

	ctx := context.Background()
	deps, cleanup, err := buildKBDeps(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	spec := kb.CreateSpec{
		Name:               *name,
		Description:        *description,
		EmbeddingModel:     *embeddingModel,
		EmbeddingDimension: *embeddingDim,
	}
	if *chunkSize > 0 {
		spec.ChunkConfig = kb.ChunkConfig{
			Size:     *chunkSize,
			Overlap:  *chunkOverlap,
			Encoding: "cl100k_base",
		}
	}

	created, err := deps.manager.CreateKB(ctx, spec)
	if err != nil {
		return fmt.Errorf("create knowledge base: %w", err)
	}

	fmt.Printf("created knowledge base %s (%s), collection %s\n", created.ID, created.Name, created.CollectionName)
	return nil
}

func kbList(args []string) error {
	fs := flag.NewFlagSet("kb list", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 20, "page size")
	configPath := fs.String("config", "config.yaml", "config file path")
	fs.Parse(args)

	ctx := context.Background()
	deps, cleanup, err := buildKBDeps(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	kbs, total, err := deps.manager.ListKBs(ctx, *page, *size)
	if err != nil {
		return fmt.Errorf("list knowledge bases: %w", err)
	}

	fmt.Printf("%-36s  %-24s  %10s  %10s  %s\n", "ID", "NAME", "DOCUMENTS", "CHUNKS", "MODEL")
	for _, k := range kbs {
		fmt.Printf("%-36s  %-24s  %10d  %10d  %s\n", k.ID, k.Name, k.DocumentCount, k.ChunkCount, k.EmbeddingModel)
	}
	fmt.Printf("\n%d of %d knowledge bases shown\n", len(kbs), total)
	return nil
}

func kbDelete(args []string) error {
	fs := flag.NewFlagSet("kb delete", flag.ExitOnError)
	id := fs.String("id", "", "knowledge base id (required)")
	configPath := fs.String("config", "config.yaml", "config file path")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("delete requires -id")
	}

	ctx := context.Background()
	deps, cleanup, err := buildKBDeps(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := deps.manager.DeleteKB(ctx, *id); err != nil {
		return fmt.Errorf("delete knowledge base %s: %w", *id, err)
	}

	fmt.Printf("deleted knowledge base %s\n", *id)
	return nil
}

// kbReindex is sugar over delete-then-reupload: the server exposes no
// dedicated reprocess endpoint (§9 of the spec this tool administers), so
// reindexing a file is always delete the old file entry and upload the
// source again under a fresh FileEntity. Manager.DeleteFile removes only the
// metadata row; the old entry's vectors are not deleted from the collection.
func kbReindex(args []string) error {
	fs := flag.NewFlagSet("kb reindex", flag.ExitOnError)
	kbID := fs.String("id", "", "knowledge base id (required)")
	filePath := fs.String("file", "", "path to the source file on disk (required)")
	configPath := fs.String("config", "config.yaml", "config file path")
	fs.Parse(args)

	if *kbID == "" || *filePath == "" {
		return fmt.Errorf("reindex requires -id and -file")
	}

	ctx := context.Background()
	deps, cleanup, err := buildKBDeps(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	existing, _, err := deps.manager.ListFiles(ctx, *kbID, "", 1, 1000)
	if err != nil {
		return fmt.Errorf("list files for knowledge base %s: %w", *kbID, err)
	}
	for _, f := range existing {
		if f.Path == *filePath {
			if err := deps.manager.DeleteFile(ctx, f.ID); err != nil {
				return fmt.Errorf("delete existing file entry %s: %w", f.ID, err)
			}
			fmt.Printf("removed prior file entry %s\n", f.ID)
			break
		}
	}

	reuploaded, err := deps.manager.UploadFile(ctx, *kbID, *filePath)
	if err != nil {
		return fmt.Errorf("reupload %s: %w", *filePath, err)
	}

	fmt.Printf("queued %s as file %s (status: %s)\n", *filePath, reuploaded.ID, reuploaded.Status)
	return nil
}

// kbDeps bundles every component kb subcommands share, grounded on the same
// construction order cmd/server/main.go uses minus the HTTP layer, LLM and
// flow logger — the admin tool never serves chat traffic.
type kbDeps struct {
	manager *kb.Manager
	pool    *workerpool.Pool
}

func buildKBDeps(ctx context.Context, configPath string) (*kbDeps, func(), error) {
	config, err := conf.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	dbConfig := database.DefaultConfig()
	dbConfig.Path = config.KBStore.DatabasePath
	db, err := database.New(dbConfig, log)
	if err != nil {
		log.Sync()
		return nil, nil, fmt.Errorf("open kb database: %w", err)
	}

	milvusCtx, cancel := context.WithTimeout(ctx, config.Vector.DefaultTimeout)
	milvusClient, err := milvus.New(milvusCtx, &milvus.Config{
		Address:        config.Vector.URL,
		RequestTimeout: config.Vector.DefaultTimeout,
	}, log)
	cancel()
	if err != nil {
		log.Sync()
		return nil, nil, fmt.Errorf("connect to milvus: %w", err)
	}

	vectorStore := vectorstore.NewMilvusStore(milvusClient, config.Vector.UpsertBatchSize, log)

	embedProvider, err := embedding.NewOpenAIProvider(embedding.OpenAIProviderConfig{
		APIKey:    config.Embedding.APIKey,
		BaseURL:   config.Embedding.Host,
		Model:     config.Embedding.Model,
		Dimension: config.Embedding.Dimension,
	}, log)
	if err != nil {
		milvusClient.Close(context.Background())
		log.Sync()
		return nil, nil, fmt.Errorf("init embedding provider: %w", err)
	}
	embedClient := embedding.New(embedProvider, embedding.Config{
		BatchSize:             config.Embedding.BatchSize,
		AllowFallback:         true,
		InterBatchDelayMillis: int(config.Embedding.InterBatchDelay / time.Millisecond),
	}, log)

	loaderRegistry := loader.NewRegistry(config.Ingestion.MaxFileSizeBytes)

	kbStore := kb.NewStore(db)
	if err := kbStore.Migrate(ctx); err != nil {
		milvusClient.Close(context.Background())
		log.Sync()
		return nil, nil, fmt.Errorf("migrate kb store: %w", err)
	}

	pipeline := ingestion.New(loaderRegistry, embedClient, vectorStore, kbStore)

	pool, err := workerpool.New(workerpool.IngestionPoolConfig(config.Ingestion.WorkerPoolSize), log.Logger)
	if err != nil {
		milvusClient.Close(context.Background())
		log.Sync()
		return nil, nil, fmt.Errorf("start worker pool: %w", err)
	}

	retrievalEngine := retrieval.New(embedClient, vectorStore)

	manager := kb.NewManager(kbStore, vectorStore, pipeline, pool,
		kb.WithRetriever(retrievalEngine),
		kb.WithLogger(log),
	)

	cleanup := func() {
		pool.Shutdown()
		milvusClient.Close(context.Background())
		log.Sync()
	}

	return &kbDeps{manager: manager, pool: pool}, cleanup, nil
}

func runFlowlog(args []string) error {
	if len(args) < 1 || args[0] != "analyze" {
		usage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet("flowlog analyze", flag.ExitOnError)
	path := fs.String("path", "", "flow log file to analyze (required)")
	session := fs.String("session", "", "restrict to a single session id")
	slowThreshold := fs.Float64("slow-threshold", 2.0, "seconds above which an operation is reported as slow")
	exportJSON := fs.String("export-json", "", "write the parsed events to this JSON file")
	exportCSV := fs.String("export-csv", "", "write the parsed events to this CSV file")
	fs.Parse(args[1:])

	if *path == "" {
		return fmt.Errorf("analyze requires -path")
	}

	analyzer, err := flowlog.NewAnalyzer(*path)
	if err != nil {
		return fmt.Errorf("load flow log: %w", err)
	}

	if *session != "" {
		events := analyzer.FilterBySession(*session)
		fmt.Printf("session %s: %d events\n", *session, len(events))
		for _, e := range events {
			fmt.Printf("  [%s] %-16s %s\n", e.Timestamp.Format(time.RFC3339), e.EventType, e.Status)
		}
	}

	fmt.Println("timing stats by event type:")
	for eventType, stat := range analyzer.TimingStats() {
		fmt.Printf("  %-16s count=%-5d avg=%.3fs min=%.3fs max=%.3fs p95=%.3fs\n",
			eventType, stat.Count, stat.Avg, stat.Min, stat.Max, stat.P95)
	}

	errors := analyzer.FindErrors()
	fmt.Printf("\n%d error events\n", len(errors))
	for _, e := range errors {
		fmt.Printf("  [%s] session=%s metadata=%v\n", e.Timestamp.Format(time.RFC3339), e.SessionID, e.Metadata)
	}

	slow := analyzer.FindSlowOperations(*slowThreshold)
	fmt.Printf("\n%d operations at or above %.1fs\n", len(slow), *slowThreshold)
	for _, e := range slow {
		fmt.Printf("  [%s] %-16s session=%s duration=%.3fs\n", e.Timestamp.Format(time.RFC3339), e.EventType, e.SessionID, *e.DurationSeconds)
	}

	if *exportJSON != "" {
		if err := analyzer.ExportJSON(*exportJSON); err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		fmt.Printf("\nexported to %s\n", *exportJSON)
	}
	if *exportCSV != "" {
		if err := analyzer.ExportCSV(*exportCSV); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		fmt.Printf("exported to %s\n", *exportCSV)
	}

	return nil
}
