package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Yat-Muk/prism-desk/internal/domain/profile"
)

func init() {
	var profileCmd = &cobra.Command{
		Use:   "profile",
		Short: "Profile 管理",
	}

	// profile list
	profileCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出所有 Profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMODE\tGROUPS\tRULES")
			for _, p := range deps.ProfileService.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
					p.ID, p.Name, p.GeneralConfig.Mode, len(p.ProxyGroupsConfig), len(p.RulesConfig))
			}
			return w.Flush()
		},
	})

	// profile show <id>
	profileCmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "以 YAML 顯示 Profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := deps.ProfileService.Get(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(p)
		},
	})

	// profile add <name>
	var fromFile string
	var addCmd = &cobra.Command{
		Use:   "add <name>",
		Short: "新建 Profile（可從 YAML 文件導入）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := profile.New(args[0])
			if fromFile != "" {
				content, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("讀取 %s 失敗: %w", fromFile, err)
				}
				if err := yaml.Unmarshal(content, p); err != nil {
					return fmt.Errorf("解析 %s 失敗: %w", fromFile, err)
				}
				if p.ID == "" {
					p.ID = profile.New(args[0]).ID
				}
				p.Name = args[0]
			}
			if err := deps.ProfileService.Add(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ 已創建 Profile %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&fromFile, "file", "f", "", "從 YAML 文件導入")
	profileCmd.AddCommand(addCmd)

	// profile mode <id> <rule|global|direct>
	profileCmd.AddCommand(&cobra.Command{
		Use:   "mode <id> <rule|global|direct>",
		Short: "修改運行模式",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := deps.ProfileService.Get(args[0])
			if err != nil {
				return err
			}
			p.GeneralConfig.Mode = args[1]
			if err := deps.ProfileService.Edit(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s 模式已切換為 %s\n", p.Name, args[1])
			return nil
		},
	})

	// profile delete <id>
	profileCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "刪除 Profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.ProfileService.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ 已刪除 %s\n", args[0])
			return nil
		},
	})

	rootCmd.AddCommand(profileCmd)
}
