package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Yat-Muk/prism-desk/internal/pkg/appctx"
	"github.com/Yat-Muk/prism-desk/internal/pkg/logger"
	"github.com/Yat-Muk/prism-desk/internal/pkg/version"
)

var (
	v    = appctx.NewViper()
	deps *AppDependencies
)

var rootCmd = &cobra.Command{
	Use:           "prism",
	Short:         "Prism 配置管理",
	Long:          `管理 Profile、訂閱與規則集，並生成 sing-box 內核配置。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		deps, err = bootstrap(cmd, v)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if deps != nil {
			deps.ProfileService.Flush()
			_ = deps.Log.Sync()
		}
	},
}

func init() {
	rootCmd.Version = version.Short()

	flags := rootCmd.PersistentFlags()
	flags.String("dir", "", "指定工作目錄 (默認: 當前目錄)")
	flags.String("log-level", "info", "日誌級別 (debug, info, warn, error)")
	flags.Bool("console", false, "同時輸出日誌到控制台")
	flags.Bool("encrypt", false, "加密保存控制面板密鑰")

	_ = v.BindPFlag("work_dir", flags.Lookup("dir"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.console", flags.Lookup("console"))
	_ = v.BindPFlag("secrets.encrypt", flags.Lookup("encrypt"))

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "顯示版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	})
}

// bootstrap 解析參數、初始化日誌並組裝依賴
func bootstrap(cmd *cobra.Command, v *viper.Viper) (*AppDependencies, error) {
	settings, err := appctx.LoadSettings(v)
	if err != nil {
		return nil, err
	}

	paths, err := appctx.NewPaths(settings.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("無法初始化路徑: %w", err)
	}

	logConfig := logger.DefaultConfig()
	logConfig.OutputPath = paths.LogFile
	logConfig.Level = settings.Log.Level
	logConfig.Console = settings.Log.Console

	log, err := logger.New(logConfig)
	if err != nil {
		return nil, fmt.Errorf("日誌初始化失敗: %w", err)
	}

	log.Debug("Prism 正在啟動",
		zap.String("version", version.Version),
		zap.String("commit", version.GitCommit),
		zap.String("command", cmd.CommandPath()),
		zap.String("dir", paths.BaseDir),
	)

	return initializeDependencies(cmd.Context(), log, paths, settings)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
