package cmd

import (
	"MusicSphere/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 MusicSphere 服务器",
	Long:  `启动 HTTP 服务器，提供搜索、播放会话、收藏与歌单 API，以及播放器 WebSocket。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
