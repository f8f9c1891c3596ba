package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Yat-Muk/prism-desk/internal/application"
	"github.com/Yat-Muk/prism-desk/internal/pkg/appctx"
)

func init() {
	var toStdout, check bool
	var generateCmd = &cobra.Command{
		Use:   "generate <profile-id>",
		Short: "生成 sing-box 配置文件",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !toStdout {
				if err := deps.KernelService.GenerateConfigFile(cmd.Context(), args[0]); err != nil {
					return err
				}
				configPath := deps.Paths.Abs(appctx.KernelConfigFile)
				fmt.Fprintf(cmd.OutOrStdout(), "✅ 已寫入 %s\n", configPath)
				if check {
					if err := deps.Checker.Check(cmd.Context(), configPath, deps.Paths.KernelDir); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "✅ 配置驗證通過")
				}
				return nil
			}

			cfg, err := deps.KernelService.Generate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := application.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	generateCmd.Flags().BoolVar(&toStdout, "stdout", false, "輸出到標準輸出而非寫入文件")
	generateCmd.Flags().BoolVar(&check, "check", false, "寫入後調用內核驗證配置")
	rootCmd.AddCommand(generateCmd)
}
