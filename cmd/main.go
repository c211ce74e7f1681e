package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/config"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/handler"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/middleware"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/modifier"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/provider"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/push"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/rag"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/service"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/storage"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 文本生成后端
	primary, fallbacks, err := provider.NewFromConfig(ctx, cfg.Providers)
	if err != nil {
		logger.Fatalf("Failed to create providers: %v", err)
	}
	cache, err := provider.NewResponseCache(cfg.Cache)
	if err != nil {
		logger.Fatalf("Failed to create response cache: %v", err)
	}
	if err := cache.Load(); err != nil {
		logger.Warnf("Failed to load response cache, starting empty: %v", err)
	}
	orchestrator := provider.NewOrchestrator(primary, fallbacks,
		provider.OptionsFromConfig(cfg.Orchestrator, cfg.Cache), cache, provider.NewMetrics(registry))
	orchestrator.Start()

	// 检索
	kb, err := rag.LoadKnowledgeBase(cfg.Retrieval.KnowledgeBase, cfg.Retrieval.TopK)
	if err != nil {
		logger.Fatalf("Failed to load knowledge base: %v", err)
	}
	grounder := rag.NewGrounder(rag.NewDecomposer(orchestrator), kb, cfg.Retrieval.FusionK, cfg.Retrieval.MaxConcurrency)

	store, err := newStorage(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to init storage: %v", err)
	}

	go storage.RunBackups(ctx, store, cfg.Storage.BackupInterval)

	hub := push.NewHub()
	wireframes := service.NewWireframeService(store, orchestrator, grounder, modifier.New(orchestrator).WithGrounder(grounder), hub, cfg.Session)
	wireframes.Start()

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit)
		go limiter.Run(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(cfg, handler.Deps{
		Wireframes:   handler.NewWireframeHandler(wireframes, cfg.Server.RequestTimeout),
		Hub:          hub,
		Limiter:      limiter,
		Registry:     registry,
		Orchestrator: orchestrator,
	})

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("服务器启动在端口 %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待信号优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务器正在关闭...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// 先断开 websocket，Shutdown 不会等待被接管的连接
		hub.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("服务器关闭失败: %v", err)
		}
		wireframes.Close()
		if err := orchestrator.Close(); err != nil {
			logger.Errorf("Failed to flush response cache: %v", err)
		}
		if err := store.Close(); err != nil {
			logger.Errorf("Failed to close storage: %v", err)
		}
	}()

	select {
	case <-done:
		logger.Info("服务器已关闭")
	case <-shutdownCtx.Done():
		logger.Error("关闭超时，强制退出")
		os.Exit(1)
	}
}

func newStorage(cfg config.StorageConfig) (storage.Storage, error) {
	var store storage.Storage
	switch cfg.Type {
	case "disk", "file":
		store = storage.NewDiskStorage(cfg.DataDir, cfg.CacheSize)
	case "memory", "":
		store = storage.NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if err := store.Init(); err != nil {
		return nil, err
	}
	logger.Infof("Storage initialized: %s", cfg.Type)
	return store, nil
}
