// Package storage keeps self-hosted audio mirrors in a MinIO bucket. The
// resolver checks it before going out to the video proxies.
package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"MusicSphere/config"
	"MusicSphere/logger"
	"MusicSphere/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MirrorPrefix 镜像对象的前缀
const MirrorPrefix = "mirror/"

// Mirror 封装了 MinIO 客户端和镜像所在的存储桶
type Mirror struct {
	client     *minio.Client
	bucketName string
	presignTTL time.Duration
}

// InitMinio 初始化 MinIO 客户端，存储桶不存在时创建
func InitMinio(ctx context.Context, cfg *config.Config) (*Mirror, error) {
	logger.Info("正在连接 MinIO 服务器...",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket),
		logger.String("region", cfg.MinioRegion))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}

	logger.Info("MinIO 客户端初始化成功")
	return NewMirror(client, cfg.MinioBucket, cfg.MirrorPresignTTL), nil
}

// NewMirror wraps an existing client.
func NewMirror(client *minio.Client, bucket string, presignTTL time.Duration) *Mirror {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &Mirror{client: client, bucketName: bucket, presignTTL: presignTTL}
}

// ObjectKey 由标题和歌手决定，同一首歌在不同曲库 ID 下共享镜像
func (m *Mirror) ObjectKey(track model.Track) string {
	return ObjectKey(track)
}

func ObjectKey(track model.Track) string {
	norm := strings.ToLower(strings.TrimSpace(track.Title)) + "|" + strings.ToLower(strings.TrimSpace(track.Artist))
	sum := sha1.Sum([]byte(norm))
	return MirrorPrefix + hex.EncodeToString(sum[:]) + ".mp3"
}

// Exists 对象不存在时返回 false, nil
func (m *Mirror) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("查询对象失败: %w", err)
}

// PresignedURL 生成限时下载地址
func (m *Mirror) PresignedURL(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucketName, key, m.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("生成下载地址失败: %w", err)
	}
	return u.String(), nil
}

// Put 上传镜像音频，size 未知时传 -1
func (m *Mirror) Put(ctx context.Context, track model.Track, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	key := ObjectKey(track)
	_, err := m.client.PutObject(ctx, m.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"title":  track.Title,
			"artist": track.Artist,
		},
	})
	if err != nil {
		return "", fmt.Errorf("上传镜像失败: %w", err)
	}
	logger.Info("[Put] 上传镜像成功",
		logger.String("key", key),
		logger.String("title", track.Title))
	return key, nil
}

func (m *Mirror) Bucket() string { return m.bucketName }
