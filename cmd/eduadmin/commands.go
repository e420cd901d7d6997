package main

import (
	"aiedu_backend/internal/app"
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/service"
	"aiedu_backend/pkg/database"
	"aiedu_backend/pkg/logger"
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env 命令执行期间的数据库连接和服务
type env struct {
	cfg      *config.Config
	db       *gorm.DB
	rdb      *redis.Client
	services *app.Services
}

func (e *env) close(ctx context.Context) {
	if e.services != nil {
		e.services.Drafts.Close(ctx)
	}
	if e.rdb != nil {
		e.rdb.Close()
	}
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
}

type openFunc func(configDir string) (*env, error)

func openEnv(configDir string) (*env, error) {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, "release")
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	return &env{cfg: cfg, db: db, rdb: rdb, services: app.NewServices(cfg, db, rdb)}, nil
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func newRootCmd() *cobra.Command {
	return newRootCmdWith(openEnv)
}

func newRootCmdWith(open openFunc) *cobra.Command {
	var configDir string
	root := &cobra.Command{
		Use:           "eduadmin",
		Short:         "AIEdu 管理命令行",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config", "configs", "配置目录")

	// withEnv 为子命令打开连接并在结束时关闭
	withEnv := func(fn func(ctx context.Context, e *env, out io.Writer, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			e, err := open(configDir)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			defer e.close(ctx)
			return fn(ctx, e, cmd.OutOrStdout(), args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "set-role <uid> <role>",
			Short: "修改用户角色 (student | editor | admin)",
			Args:  cobra.ExactArgs(2),
			RunE: withEnv(func(ctx context.Context, e *env, out io.Writer, args []string) error {
				user, err := e.services.User.SetUserRole(ctx, args[0], model.UserRole(args[1]))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s (%s) -> %s\n", green("✓"), user.ID, user.Email, bold(user.Role))
				fmt.Fprintln(out, yellow("用户需要重新登录后新角色才会生效"))
				return nil
			}),
		},
		newCleanCmd(withEnv),
		&cobra.Command{
			Use:   "delete-path <pathId>",
			Short: "删除学习路径及其模块、课程和学习进度",
			Args:  cobra.ExactArgs(1),
			RunE: withEnv(func(ctx context.Context, e *env, out io.Writer, args []string) error {
				result, err := e.services.LearningPath.DeleteLearningPath(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s 已删除路径 %s: %d 个模块, %d 节课程, %d 条进度\n",
					green("✓"), args[0], result.Modules, result.Lessons, result.Progress)
				return nil
			}),
		},
		newPublishCmd(withEnv),
		&cobra.Command{
			Use:   "refresh-news",
			Short: "立即拉取全部新闻源",
			Args:  cobra.NoArgs,
			RunE: withEnv(func(ctx context.Context, e *env, out io.Writer, args []string) error {
				result, err := e.services.News.RefreshNews(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s 拉取 %d 篇，写入 %d 篇\n", green("✓"), result.Fetched, result.Stored)
				for _, name := range result.Failed {
					fmt.Fprintf(out, "%s %s 拉取失败\n", yellow("!"), name)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "import-firestore",
			Short: "从旧版 Firestore 导入用户、学习路径、草稿、进度和新闻",
			Args:  cobra.NoArgs,
			RunE: withEnv(func(ctx context.Context, e *env, out io.Writer, args []string) error {
				importer, err := service.NewFirestoreImportService(ctx, e.db, e.cfg.Firebase)
				if err != nil {
					return err
				}
				defer importer.Close()

				stats, err := importer.Import(ctx)
				if err != nil {
					return err
				}
				printImportStats(out, stats)
				return nil
			}),
		},
	)
	return root
}

type envRunner func(fn func(ctx context.Context, e *env, out io.Writer, args []string) error) func(*cobra.Command, []string) error

func newCleanCmd(withEnv envRunner) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "删除路径已不存在的模块和课程",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(ctx context.Context, e *env, out io.Writer, args []string) error {
			if dryRun {
				report, err := e.services.Cleaner.FindOrphans(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "孤立模块: %d\n", len(report.ModuleIDs))
				for _, id := range report.ModuleIDs {
					fmt.Fprintf(out, "  - %s\n", id)
				}
				fmt.Fprintf(out, "孤立课程: %d\n", len(report.LessonIDs))
				for _, id := range report.LessonIDs {
					fmt.Fprintf(out, "  - %s\n", id)
				}
				return nil
			}

			result, err := e.services.Cleaner.Clean(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s 已删除 %d 个模块, %d 节课程, %d 条进度\n",
				green("✓"), result.Modules, result.Lessons, result.Progress)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只列出，不删除")
	return cmd
}

func newPublishCmd(withEnv envRunner) *cobra.Command {
	var target service.PublishTarget
	cmd := &cobra.Command{
		Use:   "publish <draftId>",
		Short: "把草稿发布为课程",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, e *env, out io.Writer, args []string) error {
			result, err := e.services.Publish.PublishDraft(ctx, args[0], target)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s 课程 %s 已发布到 %s/%s，上传媒体 %d 个\n",
				green("✓"), result.Lesson.ID, target.PathID, target.ModuleID, result.UploadedMedia)
			return nil
		}),
	}
	cmd.Flags().StringVar(&target.PathID, "path", "", "学习路径 ID")
	cmd.Flags().StringVar(&target.ModuleID, "module", "", "模块 ID")
	cmd.Flags().StringVar(&target.LessonID, "lesson", "", "覆盖已有课程的 ID")
	cmd.MarkFlagRequired("path")
	cmd.MarkFlagRequired("module")
	return cmd
}

func printImportStats(out io.Writer, s *service.ImportStats) {
	fmt.Fprintln(out, bold("导入完成"))
	rows := []struct {
		name  string
		count int
	}{
		{"users", s.Users},
		{"learningPaths", s.Paths},
		{"modules", s.Modules},
		{"lessons", s.Lessons},
		{"drafts", s.Drafts},
		{"userProgress", s.Progress},
		{"aiNews", s.News},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "  %-14s %d\n", r.name, r.count)
	}
	if s.Failed > 0 {
		fmt.Fprintf(out, "%s %d 个文档解析失败，详见日志\n", yellow("!"), s.Failed)
	}
}
