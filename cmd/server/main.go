package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ragcore/internal/agent"
	"ragcore/internal/embedding"
	"ragcore/internal/flowlog"
	"ragcore/internal/httpapi"
	"ragcore/internal/ingestion"
	"ragcore/internal/kb"
	"ragcore/internal/loader"
	"ragcore/internal/pkg/conf"
	"ragcore/internal/pkg/database"
	"ragcore/internal/pkg/logger"
	"ragcore/internal/pkg/milvus"
	"ragcore/internal/pkg/rediscache"
	"ragcore/internal/pkg/workerpool"
	"ragcore/internal/retrieval"
	"ragcore/internal/server"
	"ragcore/internal/vectorstore"
)

var configFile = flag.String("config", "config.yaml", "config file path")

func main() {
	flag.Parse()

	config, err := conf.Load(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(&config.Log); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully")

	dbConfig := database.DefaultConfig()
	dbConfig.Path = config.KBStore.DatabasePath
	db, err := database.New(dbConfig, log)
	if err != nil {
		log.Fatal("failed to open kb database", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Vector.DefaultTimeout)
	milvusClient, err := milvus.New(ctx, &milvus.Config{
		Address:        config.Vector.URL,
		RequestTimeout: config.Vector.DefaultTimeout,
	}, log)
	cancel()
	if err != nil {
		log.Fatal("failed to connect to milvus", zap.Error(err))
	}
	defer func() {
		if err := milvusClient.Close(context.Background()); err != nil {
			log.Error("failed to close milvus client", zap.Error(err))
		}
	}()

	vectorStore := vectorstore.NewMilvusStore(milvusClient, config.Vector.UpsertBatchSize, log)

	embedProvider, err := embedding.NewOpenAIProvider(embedding.OpenAIProviderConfig{
		APIKey:    config.Embedding.APIKey,
		BaseURL:   config.Embedding.Host,
		Model:     config.Embedding.Model,
		Dimension: config.Embedding.Dimension,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize embedding provider", zap.Error(err))
	}

	var embedClient embedding.Client = embedding.New(embedProvider, embedding.Config{
		BatchSize:             config.Embedding.BatchSize,
		AllowFallback:         true,
		InterBatchDelayMillis: int(config.Embedding.InterBatchDelay / time.Millisecond),
	}, log)

	// The embedding cache is a best-effort layer: a Redis that is absent or
	// unreachable at startup degrades to uncached embedding rather than
	// failing the server, since no SPEC_FULL.md component requires Redis.
	if cache, err := rediscache.New(rediscache.DefaultConfig(), log); err != nil {
		log.Warn("embedding cache disabled: redis unavailable", zap.Error(err))
	} else {
		embedClient = embedding.WithCache(embedClient, cache, config.Embedding.Model, embedding.DefaultCacheConfig(), log)
	}

	loaderRegistry := loader.NewRegistry(config.Ingestion.MaxFileSizeBytes)

	kbStore := kb.NewStore(db)
	if err := kbStore.Migrate(context.Background()); err != nil {
		log.Fatal("failed to migrate kb store", zap.Error(err))
	}

	pipeline := ingestion.New(loaderRegistry, embedClient, vectorStore, kbStore)

	pool, err := workerpool.New(workerpool.IngestionPoolConfig(config.Ingestion.WorkerPoolSize), log.Logger)
	if err != nil {
		log.Fatal("failed to start ingestion worker pool", zap.Error(err))
	}
	defer pool.Shutdown()

	retrievalEngine := retrieval.New(embedClient, vectorStore)

	kbManager := kb.NewManager(kbStore, vectorStore, pipeline, pool,
		kb.WithRetriever(retrievalEngine),
		kb.WithLogger(log),
	)

	llm, err := agent.NewOpenAIChat(agent.OpenAIChatConfig{
		APIKey:  config.LLM.APIKey,
		BaseURL: config.LLM.Host,
		Model:   config.LLM.Model,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize chat llm", zap.Error(err))
	}

	flowWriter, err := newFlowWriter(config, log)
	if err != nil {
		log.Fatal("failed to initialize flow logger", zap.Error(err))
	}
	defer flowWriter.Close()

	orchestrator := agent.New(llm, agent.NewKBAdapter(kbManager),
		agent.WithHistoryLimit(20),
		agent.WithFlowRecorder(flowWriter),
		agent.WithLogger(log),
	)

	services := server.Services{
		KnowledgeBase: httpapi.NewKnowledgeBaseService(kbManager, uploadDir(config), config.Ingestion.MaxQueryLength, config.Ingestion.MaxFileSizeBytes, log),
		Chat:          httpapi.NewChatService(orchestrator, log),
		Health:        httpapi.NewHealthService(llm, embedClient, milvusClient),
	}

	httpServer := server.NewHTTPServer(config, log.Logger, services)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func uploadDir(config *conf.Config) string {
	dir := os.Getenv("RAGCORE_UPLOAD_DIR")
	if dir == "" {
		dir = "data/uploads"
	}
	return dir
}

func newFlowWriter(config *conf.Config, log *logger.Logger) (*flowlog.Writer, error) {
	cfg := flowlog.DefaultConfig(config.FlowLog.Path)
	cfg.DetailLevel = flowlog.DetailLevel(config.FlowLog.DetailLevel)
	if config.FlowLog.QueueSize > 0 {
		cfg.QueueSize = config.FlowLog.QueueSize
	}
	return flowlog.New(cfg, log)
}
