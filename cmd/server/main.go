package main

import (
	"context"
	"log"
	"os"

	"github.com/weipengdeng/flowmap/internal/api"
	"github.com/weipengdeng/flowmap/internal/config"
	"github.com/weipengdeng/flowmap/internal/database"
	"github.com/weipengdeng/flowmap/internal/repository"
	"github.com/weipengdeng/flowmap/internal/service"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// SQLite mirror is optional; only used when the file already exists
	var repo *repository.DatasetRepository
	if _, err := os.Stat(cfg.DBPath); err == nil {
		if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		defer database.Close()
		repo = repository.NewDatasetRepository(database.GetDB())
	}

	datasets := service.NewDatasetService(cfg.DataDir, repo)
	if _, err := datasets.Reload(context.Background()); err != nil {
		// Keep serving; /admin/reload can install the dataset later
		log.Printf("[Server] No dataset loaded: %v", err)
	}
	playback := service.NewPlaybackService(datasets, cfg.GridSpacing)

	// 初始化路由
	router := api.SetupRouter(cfg, api.Services{Datasets: datasets, Playback: playback})

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
