package cmd

import (
	"fmt"

	"MusicSphere/core/auth"
	"MusicSphere/core/keymap"

	"github.com/spf13/cobra"
)

var (
	tokenUserID   int64
	tokenUsername string
)

// 登录由外部系统负责，本地调试时用它签发 token
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "为指定用户签发 JWT",
	RunE: func(cmd *cobra.Command, args []string) error {
		issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			return err
		}
		tok, err := issuer.GenerateToken(tokenUserID, tokenUsername)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

var keymapCmd = &cobra.Command{
	Use:   "keymap",
	Short: "显示当前生效的快捷键",
	RunE: func(cmd *cobra.Command, args []string) error {
		km := keymap.New()
		if err := km.LoadFile(cfg.KeymapPath); err != nil {
			return err
		}
		for _, line := range km.Describe() {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(keymapCmd)

	tokenCmd.Flags().Int64VarP(&tokenUserID, "user", "u", 1, "用户ID")
	tokenCmd.Flags().StringVarP(&tokenUsername, "name", "n", "dev", "用户名")
}
