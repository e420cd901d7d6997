// 手动清理孤立的模块和课程
//
// 删除学习路径时会级联删除，此脚本用于清理旧版数据导入或手工改库后残留的数据。
// eduadmin clean 提供相同功能，部署环境没有 eduadmin 时可以直接运行本脚本。
//
// 用法: go run scripts/clean_database.go [-dry-run]

package main

import (
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/service"
	"aiedu_backend/pkg/database"
	"aiedu_backend/pkg/logger"
	"context"
	"flag"
	"log"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "只列出，不删除")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	cleaner := service.NewDatabaseCleaner(db, repository.NewLearningPathRepository(db), repository.NewProgressRepository(db))
	ctx := context.Background()

	report, err := cleaner.FindOrphans(ctx)
	if err != nil {
		log.Fatalf("查找孤立数据失败: %v", err)
	}
	log.Printf("孤立模块 %d 个，孤立课程 %d 个", len(report.ModuleIDs), len(report.LessonIDs))
	if *dryRun {
		return
	}

	result, err := cleaner.Clean(ctx)
	if err != nil {
		log.Fatalf("清理失败: %v", err)
	}
	log.Printf("完成！删除模块 %d 个，课程 %d 节，进度 %d 条", result.Modules, result.Lessons, result.Progress)
}
