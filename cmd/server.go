package cmd

import (
	"podforge/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动PodForge服务器",
	Long:  `启动PodForge播客生成系统的HTTP服务器，提供API服务和后台生成流水线`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
