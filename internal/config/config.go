// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Telegram      TelegramConfig      `mapstructure:"telegram"`
	Gemini        GeminiConfig        `mapstructure:"gemini"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Log           LogConfig           `mapstructure:"log"`
}

// ServerConfig 存储 HTTP 服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TelegramConfig 存储 Telegram Bot API 相关的配置。
type TelegramConfig struct {
	Token string `mapstructure:"token"`
	// BotUsername 用于剥离群聊命令里的 @botname 后缀。
	BotUsername string `mapstructure:"bot_username"`
	// APIBaseURL 留空时使用官方 Bot API 地址。
	APIBaseURL string `mapstructure:"api_base_url"`
	// WebhookSecret 用于校验回调来源（X-Telegram-Bot-Api-Secret-Token 头）。
	WebhookSecret string `mapstructure:"webhook_secret"`
	// MaxFileSize 限制可下载的图片大小（字节）。
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

// GeminiConfig 存储生成式模型 API 相关的配置。
type GeminiConfig struct {
	APIKey     string                 `mapstructure:"api_key"`
	BaseURL    string                 `mapstructure:"base_url"`
	Generation GeminiGenerationConfig `mapstructure:"generation"`
	// Safety 为全局安全策略，按 category/threshold 成对配置。
	Safety []GeminiSafetySetting `mapstructure:"safety"`
}

// GeminiGenerationConfig 配置生成相关参数（可选）。
type GeminiGenerationConfig struct {
	Temperature     float64 `mapstructure:"temperature"`
	TopK            int     `mapstructure:"top_k"`
	TopP            float64 `mapstructure:"top_p"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
}

// GeminiSafetySetting 对应 Gemini 的单条安全设置。
type GeminiSafetySetting struct {
	Category  string `mapstructure:"category"`
	Threshold string `mapstructure:"threshold"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// JWTConfig 存储管理后台 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
}

// AdminConfig 存储管理员身份相关的配置。
type AdminConfig struct {
	// UserIDs 是允许使用 /admin 命令的 Telegram 用户 ID 白名单。
	UserIDs []int64 `mapstructure:"user_ids"`
	// Username/PasswordHash 用于管理后台 HTTP 登录，PasswordHash 为 bcrypt 哈希。
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
