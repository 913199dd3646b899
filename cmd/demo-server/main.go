package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evdemo/internal/common/cache"
	"evdemo/internal/common/docker"
	commonmw "evdemo/internal/common/http/middleware"
	"evdemo/internal/demo/compose"
	"evdemo/internal/demo/controller"
	"evdemo/internal/demo/launch"
	demomw "evdemo/internal/demo/middleware"
	"evdemo/internal/demo/repository"
	"evdemo/internal/demo/service"
	"evdemo/pkg/utils/logger"
	"evdemo/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/demo_server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	response.SetProductionMode(appCfg.Production)
	if appCfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := compose.EnsureWritableFolder(appCfg.Simulation.SimulationsFolder); err != nil {
		logger.Error(context.Background(), "simulations folder check failed", zap.Error(err))
		return
	}

	runCache, err := buildCache(appCfg)
	if err != nil {
		logger.Error(context.Background(), "init cache failed", zap.Error(err))
		return
	}
	defer func() {
		_ = runCache.Close()
	}()

	runtime, err := docker.NewRuntime(context.Background())
	if err != nil {
		logger.Error(context.Background(), "init docker runtime failed", zap.Error(err))
		return
	}
	defer func() {
		_ = runtime.Close()
	}()

	if appCfg.Docker.PullOnStart && appCfg.Docker.ImageListFile != "" {
		if err := pullImages(runtime, appCfg.Docker.ImageListFile); err != nil {
			logger.Error(context.Background(), "pulling images failed", zap.Error(err))
			return
		}
	}

	composer := compose.NewComposer(compose.Config{
		ConfigurationFolder: appCfg.Simulation.ConfigurationFolder,
		ManifestFolder:      appCfg.Simulation.ManifestFolder,
		SimulationsFolder:   appCfg.Simulation.SimulationsFolder,
		EnvFiles:            appCfg.Simulation.EnvFiles,
		Topics:              appCfg.Simulation.Topics,
	})

	launcher, err := launch.NewLauncher(runtime, launch.Config{
		Image:         appCfg.Docker.Image,
		ContainerName: appCfg.Docker.ContainerName,
		Networks:      appCfg.Docker.Networks,
		Volumes:       appCfg.Docker.Volumes,
	})
	if err != nil {
		logger.Error(context.Background(), "init launcher failed", zap.Error(err))
		return
	}

	runRepo, err := repository.NewRunRepository(runCache, appCfg.Simulation.RunTTL)
	if err != nil {
		logger.Error(context.Background(), "init run repository failed", zap.Error(err))
		return
	}

	demoService, err := service.NewDemoService(service.Config{
		Composer: composer,
		Launcher: launcher,
		Runs:     runRepo,
	})
	if err != nil {
		logger.Error(context.Background(), "init demo service failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg, demoService)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "demo http server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

// buildCache prefers redis when configured and falls back to the in-process
// cache, which is enough for a single-instance deployment.
func buildCache(appCfg *AppConfig) (cache.Cache, error) {
	if appCfg.Redis != nil && appCfg.Redis.Addr != "" {
		return cache.NewRedisCache(appCfg.Redis)
	}
	logger.Info(context.Background(), "redis not configured, using in-memory run registry")
	return cache.NewMemoryCache(), nil
}

func pullImages(runtime *docker.Runtime, imageListFile string) error {
	references, err := docker.ReadImageList(imageListFile)
	if err != nil {
		return err
	}
	return runtime.PullImages(context.Background(), references)
}

func buildHTTPServer(appCfg *AppConfig, demoService *service.DemoService) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	demoController := controller.NewDemoController(demoService)
	router.GET("/health", demoController.Health)

	api := router.Group(appCfg.Server.BasePath)
	api.Use(demomw.TokenAuthMiddleware(appCfg.Auth.PrivateToken))
	api.POST("/", demoController.StartSimulation)
	api.GET("/simulations/:id", demoController.GetRun)

	return &http.Server{
		Addr:         appCfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  appCfg.Server.ReadTimeout,
		WriteTimeout: appCfg.Server.WriteTimeout,
		IdleTimeout:  appCfg.Server.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
