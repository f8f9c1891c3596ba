package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	var rulesetCmd = &cobra.Command{
		Use:   "ruleset",
		Short: "本地規則集管理",
	}

	// ruleset add <direct|reject|proxy> <payload>
	rulesetCmd.AddCommand(&cobra.Command{
		Use:   "add <direct|reject|proxy> <payload>",
		Short: "將條目加入本地規則集",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.RulesetService.AddToRuleSet(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ 已加入 %s: %s\n", args[0], args[1])
			return nil
		},
	})

	// ruleset show <direct|reject|proxy>
	rulesetCmd.AddCommand(&cobra.Command{
		Use:   "show <direct|reject|proxy>",
		Short: "顯示本地規則集條目",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := deps.RulesetService.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Fprintln(cmd.OutOrStdout(), item)
			}
			return nil
		},
	})

	rootCmd.AddCommand(rulesetCmd)
}
