package cmd

import (
	"fmt"
	"os"

	"MusicSphere/config"
	"MusicSphere/logger"
	"MusicSphere/server"

	"github.com/spf13/cobra"
)

var (
	cfg        *config.Config
	logConsole bool
)

var rootCmd = &cobra.Command{
	Use:   "music_sphere",
	Short: "MusicSphere is a music streaming and playback service.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		logCfg := logger.DefaultConfig(cfg.LogLevel, cfg.LogFile)
		logCfg.Console = logConsole
		return logger.InitLogger(logCfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("Starting MusicSphere server...")
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&logConsole, "console", true, "日志以彩色文本输出到终端，关闭后输出 JSON")
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
