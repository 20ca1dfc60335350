package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"MusicSphere/model"
	"MusicSphere/storage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	putTitle    string
	putArtist   string
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO 镜像存储管理",
	Long:  `查看镜像音频所在的存储桶，统计文件数量与大小。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mirror, err := connectMirror(cmd.Context())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		objects, stats, err := mirror.List(ctx, minioPrefix)
		if err != nil {
			return err
		}
		storage.PrintBucketStatus(os.Stdout, mirror.Bucket(), minioPrefix, objects, stats)
		return nil
	},
}

var minioPutCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "上传音频文件作为歌曲镜像",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if putTitle == "" || putArtist == "" {
			return fmt.Errorf("--title 和 --artist 必须指定")
		}
		mirror, err := connectMirror(cmd.Context())
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("打开文件失败: %w", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		contentType := mime.TypeByExtension(filepath.Ext(args[0]))
		if contentType == "" {
			contentType = "audio/mpeg"
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()
		track := model.Track{Title: putTitle, Artist: putArtist}
		key, err := mirror.Put(ctx, track, f, info.Size(), contentType)
		if err != nil {
			return err
		}
		fmt.Printf("已上传 %s (%s) -> %s/%s\n", args[0], humanize.Bytes(uint64(info.Size())), mirror.Bucket(), key)
		return nil
	},
}

func connectMirror(ctx context.Context) (*storage.Mirror, error) {
	if !cfg.MinioEnabled() {
		return nil, fmt.Errorf("未配置 MINIO_ENDPOINT")
	}
	fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)
	mirror, err := storage.InitMinio(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("无法连接到MinIO: %w", err)
	}
	return mirror, nil
}

func init() {
	rootCmd.AddCommand(minioCmd)
	minioCmd.AddCommand(minioPutCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", storage.MirrorPrefix, "按前缀过滤文件")
	minioPutCmd.Flags().StringVar(&putTitle, "title", "", "歌曲名")
	minioPutCmd.Flags().StringVar(&putArtist, "artist", "", "歌手")

	// 添加使用说明
	minioCmd.Example = `  # 列出镜像文件
  music_sphere minio

  # 列出整个存储桶
  music_sphere minio -p ""

  # 上传一首歌的镜像音频
  music_sphere minio put ./song.mp3 --title "Song" --artist "Band"`
}
