package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Storage  StorageConfig
	S3       S3Config
	Tools    ToolsConfig
	Limits   LimitsConfig
	Convert  ConvertConfig
	Progress ProgressConfig
	Worker   WorkerConfig
	Logger   Logger
}

type ServerConfig struct {
	AppVersion   string
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	UseTLS        bool
}

// StorageConfig describes where session directories live and how long
// artifacts and download tokens stay valid.
type StorageConfig struct {
	Driver          string // "local" or "s3"
	BaseDir         string
	TTLSeconds      int
	TokenTTLSeconds int
	MediaExtensions []string
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// ToolsConfig holds overrides for the external binaries the service shells
// out to. Empty values fall back to PATH lookup.
type ToolsConfig struct {
	FFmpegPath  string
	FFprobePath string
	YtDlpPath   string
	CookiesFile string
}

type LimitsConfig struct {
	DurationSeconds       int
	UploadDurationSeconds int
	PlaylistInspect       int
	ToolTimeoutSeconds    int
	ProbeTimeoutSeconds   int
}

// ConvertConfig lets a deployment replace rows of the built-in conversion
// matrix, keyed by source extension.
type ConvertConfig struct {
	AllowedConversions map[string][]string
}

// ProgressConfig tunes the liveness heuristic used while a transcode runs
// without a fresh progress line from ffmpeg.
type ProgressConfig struct {
	TickMs           int
	StallMs          int
	HeuristicCeiling int
	ParsedCeiling    int
}

type WorkerConfig struct {
	PoolSize            int
	QueueKey            string
	MaxCPUUsage         float64
	MaxRetries          int
	RetryBackoffSeconds int
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.TTLSeconds == 0 {
		c.Storage.TTLSeconds = 3600
	}
	if c.Storage.TokenTTLSeconds == 0 {
		c.Storage.TokenTTLSeconds = c.Storage.TTLSeconds
	}
	if len(c.Storage.MediaExtensions) == 0 {
		c.Storage.MediaExtensions = []string{
			"mp3", "m4a", "wav", "ogg", "aac", "flac", "opus", "mp4", "webm", "mkv",
		}
	}
	if c.Limits.DurationSeconds == 0 {
		c.Limits.DurationSeconds = 600
	}
	if c.Limits.UploadDurationSeconds == 0 {
		c.Limits.UploadDurationSeconds = 300
	}
	if c.Limits.PlaylistInspect == 0 {
		c.Limits.PlaylistInspect = 50
	}
	if c.Limits.ToolTimeoutSeconds == 0 {
		c.Limits.ToolTimeoutSeconds = 600
	}
	if c.Limits.ProbeTimeoutSeconds == 0 {
		c.Limits.ProbeTimeoutSeconds = 10
	}
	if c.Progress.TickMs == 0 {
		c.Progress.TickMs = 200
	}
	if c.Progress.StallMs == 0 {
		c.Progress.StallMs = 1000
	}
	if c.Progress.HeuristicCeiling == 0 {
		c.Progress.HeuristicCeiling = 95
	}
	if c.Progress.ParsedCeiling == 0 {
		c.Progress.ParsedCeiling = 99
	}
	if c.Worker.PoolSize == 0 {
		c.Worker.PoolSize = 4
	}
	if c.Worker.QueueKey == "" {
		c.Worker.QueueKey = "convert_jobs"
	}
	if c.Worker.MaxCPUUsage == 0 {
		c.Worker.MaxCPUUsage = 80.0
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 2
	}
	if c.Worker.RetryBackoffSeconds == 0 {
		c.Worker.RetryBackoffSeconds = 2
	}
}
