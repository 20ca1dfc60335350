package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MusicSphere/core/catalog"
	"MusicSphere/core/resolver"
	"MusicSphere/core/youtube"

	"github.com/spf13/cobra"
)

var (
	searchKeyword string
	resolveIndex  int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "曲库搜索命令行工具",
	Long:  `在 Spotify 曲库中搜索歌曲，可选地为其中一首解析播放源。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword := strings.TrimSpace(searchKeyword)
		if keyword == "" && len(args) > 0 {
			keyword = strings.Join(args, " ")
		}
		if keyword == "" {
			return fmt.Errorf("请输入要搜索的歌曲名称")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client, err := catalog.NewClient(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret)
		if err != nil {
			return err
		}

		fmt.Printf("正在搜索: %s\n", keyword)
		tracks, err := client.Search(ctx, keyword)
		if err != nil {
			return fmt.Errorf("搜索失败: %w", err)
		}
		if len(tracks) == 0 {
			fmt.Println("未找到相关歌曲")
			return nil
		}

		fmt.Printf("\n找到 %d 首歌曲:\n", len(tracks))
		for i, t := range tracks {
			preview := ""
			if t.HasPreview() {
				preview = " (试听)"
			}
			fmt.Printf("%d. %s - %s [%s] %s%s\n", i+1, t.Title, t.Artist, t.Album, t.DurationLabel, preview)
		}

		if resolveIndex == 0 {
			return nil
		}
		if resolveIndex < 1 || resolveIndex > len(tracks) {
			return fmt.Errorf("无效的选择: %d", resolveIndex)
		}

		var strategies []resolver.Strategy
		if cfg.YouTubeAPIKey != "" {
			yt := youtube.NewClient(cfg.YouTubeAPIKey, nil,
				youtube.ProxiesFromConfig(cfg.CobaltURL, cfg.YtdlpURL, cfg.GenericProxyURL)...)
			strategies = append(strategies, resolver.ProxyStrategy{Videos: yt}, resolver.EmbedStrategy{Videos: yt})
		}
		selected := tracks[resolveIndex-1]
		src := resolver.New(strategies...).Resolve(ctx, selected)

		fmt.Printf("\n歌曲: %s\n", selected.Title)
		fmt.Printf("艺术家: %s\n", selected.Artist)
		if src == nil {
			fmt.Println("暂无可用音源")
			return nil
		}
		fmt.Printf("播放源: %s (%s)\n", src.URL, src.Kind)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchKeyword, "keyword", "k", "", "要搜索的歌曲名称")
	searchCmd.Flags().IntVarP(&resolveIndex, "resolve", "r", 0, "为第 N 首结果解析播放源")
}
