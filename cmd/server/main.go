package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/cinereview/internal/config"
	"github.com/user/cinereview/internal/handler"
	"github.com/user/cinereview/internal/middleware"
	"github.com/user/cinereview/internal/repository"
	"github.com/user/cinereview/internal/router"
	"github.com/user/cinereview/internal/service"
	"github.com/user/cinereview/internal/session"
	"github.com/user/cinereview/internal/storage"
	"github.com/user/cinereview/internal/utils"
)

func main() {
	log := utils.Log

	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Info("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()
	utils.InitLogger(cfg.Env)

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 初始化 Redis（用户资料与持久会话标记）
	rdb, err := repository.InitRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Redis 连接失败: %v", err)
	}
	defer rdb.Close()

	// 初始化对象存储
	bucket, err := storage.NewMinIOBucket(cfg.MinIO)
	if err != nil {
		log.Fatalf("对象存储初始化失败: %v", err)
	}
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bucket.EnsureBucket(bootCtx); err != nil {
		log.Warnf("检查存储桶失败，上传功能可能不可用: %v", err)
	}
	bootCancel()
	images := storage.NewImageStore(bucket)

	// 初始化仓库
	repos := repository.NewRepositories(db, rdb)

	// 会话服务
	sessionSvc := session.NewService(
		repos.Profile,
		session.NewRedisMarkers(rdb),
		session.NewMemoryMarkers(cfg.SessionIdleTTL),
	)

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Cookie 会话只保存浏览上下文 ID
	store := cookie.NewStore([]byte(cfg.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 天
		HttpOnly: true,
		Secure:   false, // 关键：非 HTTPS 环境必须为 false
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("cinereview_session", store))

	// 中间件
	r.Use(middleware.Logger())
	r.Use(middleware.Security())
	r.Use(middleware.CORS(cfg.CORSOrigin))

	// 初始化 Handler
	h := handler.NewHandler(repos, sessionSvc, images, cfg)

	// 启动平均分定时校准
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	reconciler := service.NewRatingReconciler(repos.Movie, h.Aggregator, cfg.ReconcileInterval)
	reconciler.Start(ctx)

	// 注册路由
	router.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   cfg.DetailTimeout + 5*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		log.Infof("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("正在关闭服务器...")
	stop()

	// 5 秒超时上下文用于关闭过程
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("服务器强制关闭:", err)
	}

	log.Info("服务器已退出")
}
