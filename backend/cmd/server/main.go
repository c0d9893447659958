package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/OpenClique85/openclique-sub004/backend/config"
	"github.com/OpenClique85/openclique-sub004/backend/internal/api/handler"
	"github.com/OpenClique85/openclique-sub004/backend/internal/api/router"
	"github.com/OpenClique85/openclique-sub004/backend/internal/monitor"
	"github.com/OpenClique85/openclique-sub004/backend/internal/repository"
	"github.com/OpenClique85/openclique-sub004/backend/internal/service"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/cache"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/database"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/jwt"
	applogger "github.com/OpenClique85/openclique-sub004/backend/pkg/logger"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/metrics"
	"github.com/OpenClique85/openclique-sub004/backend/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("管理后台启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，降级运行：Token 黑名单、登录限流与查询缓存不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化查询缓存、指标与 JWT
	// store 留空接口值而非带类型的 nil 指针，缓存层靠 == nil 判断降级
	var store cache.Store
	if rdb != nil {
		store = rdb
	}
	queryCache := cache.New(store, cfg.Cache.TTL, logger)
	m := metrics.NewManager()
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, rdb, queryCache, m, jwtMgr, logger)
	h := handler.NewHandler(svc)

	// 7. 启动后台巡检（聊天活跃度 + 异常报告）
	monCtx, monCancel := context.WithCancel(context.Background())
	defer monCancel()
	mon := monitor.New(cfg, svc.Squad, svc.Anomaly, m, logger)
	go mon.Run(monCtx)

	// 8. 初始化路由并启动 HTTP 服务器
	engine := router.Setup(cfg, h, jwtMgr, rdb, m, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 先停巡检再断连接，巡检还握着数据库和缓存
	monCancel()
	if err := mon.Shutdown(ctx); err != nil {
		logger.Warn("后台巡检关闭异常", zap.Error(err))
	}

	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
