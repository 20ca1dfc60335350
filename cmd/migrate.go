package cmd

import (
	"fmt"

	"MusicSphere/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新收藏与歌单表",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.DatabaseEnabled() {
			return fmt.Errorf("未配置 DB_HOST")
		}
		if _, err := db.ConnectGormDB(cfg); err != nil {
			return err
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrateModels(); err != nil {
			return err
		}
		fmt.Printf("已迁移 %d 张表\n", len(db.Models()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
