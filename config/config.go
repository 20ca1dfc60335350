package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ListenAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	VideoIDTTL    time.Duration // YouTube 搜索结果缓存时间
	PlaylistTTL   time.Duration // 歌单歌曲缓存时间

	// MinIO 镜像存储
	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioBucket      string
	MinioRegion      string
	MinioUseSSL      bool
	MirrorPresignTTL time.Duration

	// Spotify 曲库
	SpotifyClientID     string
	SpotifyClientSecret string

	// YouTube 与音频提取代理
	YouTubeAPIKey   string
	YouTubeBaseURL  string
	CobaltURL       string
	YtdlpURL        string
	GenericProxyURL string

	JWTSecret  string
	JWTTTL     time.Duration
	KeymapPath string

	LogLevel string
	LogFile  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration 支持 "90s"、"24h" 这类写法
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv reads the process environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "music_sphere"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		VideoIDTTL:    getEnvDuration("VIDEO_ID_TTL", 7*24*time.Hour),
		PlaylistTTL:   getEnvDuration("PLAYLIST_CACHE_TTL", 24*time.Hour),

		MinioEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:      getEnv("MINIO_BUCKET", "music-sphere"),
		MinioRegion:      getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:      getEnvBool("MINIO_USE_SSL", false),
		MirrorPresignTTL: getEnvDuration("MIRROR_PRESIGN_TTL", time.Hour),

		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),

		YouTubeAPIKey:   getEnv("YOUTUBE_API_KEY", ""),
		YouTubeBaseURL:  getEnv("YOUTUBE_BASE_URL", ""),
		CobaltURL:       getEnv("COBALT_URL", "https://co.wuk.sh/api/json"),
		YtdlpURL:        getEnv("YTDLP_URL", ""),
		GenericProxyURL: getEnv("GENERIC_PROXY_URL", ""),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTTTL:     getEnvDuration("JWT_TTL", 7*24*time.Hour),
		KeymapPath: getEnv("KEYMAP_PATH", "keymap.yaml"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// DatabaseEnabled 未配置 DB_HOST 时使用内存存储
func (c *Config) DatabaseEnabled() bool { return c.DBHost != "" }

func (c *Config) RedisEnabled() bool { return c.RedisHost != "" }

func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}
