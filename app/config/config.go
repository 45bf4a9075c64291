package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	YouTube     YouTubeConfig     `mapstructure:"youtube"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin 运行模式: debug, release, test
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres 或 sqlite
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

// DSN 返回 postgres 连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type YouTubeConfig struct {
	APIKey    string   `mapstructure:"api_key"`
	Languages []string `mapstructure:"languages"` // 字幕语言优先级
	PageSize  int64    `mapstructure:"page_size"`
}

type FetchConfig struct {
	BatchAttempts  int           `mapstructure:"batch_attempts"`
	SingleAttempts int           `mapstructure:"single_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

type MaintenanceConfig struct {
	Schedule   string        `mapstructure:"schedule"`    // cron 表达式，留空则不启用
	StaleAfter time.Duration `mapstructure:"stale_after"` // processing 超过该时长视为中断
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // json 或 text
	Output     string `mapstructure:"output"`      // stdout 或 file
	Dir        string `mapstructure:"dir"`         // 日志目录
	MaxSize    int    `mapstructure:"max_size"`    // 兆字节
	MaxBackups int    `mapstructure:"max_backups"` // 备份数量
	MaxAge     int    `mapstructure:"max_age"`     // 天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧文件
}

// 不带前缀的环境变量名
var envBindings = map[string]string{
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.name":     "DB_NAME",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"youtube.api_key":   "GOOGLE_DEVELOPER_API_KEY",
}

// Load 读取配置。配置文件不存在时只使用默认值和环境变量
func Load() (*Config, error) {
	v := viper.GetViper()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件出错: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解码配置: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// SetDefaults 设置默认配置
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "youtube_transcripts")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "data/yt-transcripts.db")

	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.languages", []string{"en"})
	v.SetDefault("youtube.page_size", 50)

	v.SetDefault("fetch.batch_attempts", 3)
	v.SetDefault("fetch.single_attempts", 2)
	v.SetDefault("fetch.retry_delay", 2*time.Second)

	v.SetDefault("maintenance.schedule", "@every 10m")
	v.SetDefault("maintenance.stale_after", time.Hour)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.dir", "data/logs")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)
}

// validateConfig 验证配置的有效性
func validateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("服务器端口未设置")
	}
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("数据库主机或库名未设置")
		}
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("sqlite 文件路径未设置")
		}
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}
	if cfg.Fetch.BatchAttempts < 1 || cfg.Fetch.SingleAttempts < 1 {
		return fmt.Errorf("字幕抓取次数必须大于 0")
	}
	if cfg.Fetch.RetryDelay < 0 {
		return fmt.Errorf("重试间隔不能为负数")
	}
	if cfg.YouTube.PageSize < 1 || cfg.YouTube.PageSize > 50 {
		return fmt.Errorf("youtube.page_size 必须在 1 到 50 之间")
	}
	return nil
}
