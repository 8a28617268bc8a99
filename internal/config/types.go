package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Env            string                `yaml:"env"` // "development" | "production"
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Timezone       string                `yaml:"timezone"`
	AutoMigrate    bool                  `yaml:"auto_migrate"`
	LLM            LLMConfig             `yaml:"llm"`
	Storage        StorageConfig         `yaml:"storage"`
	Documents      DocumentsConfig       `yaml:"documents"`
}

type DatabaseRuntimeConfig struct {
	Driver    string            `yaml:"driver"` // "mysql" | "sqlite"
	Path      string            `yaml:"path"`   // sqlite only
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
	Tmp  string `yaml:"tmp"`
}

// LLMConfig selects the provider used for outline generation.
type LLMConfig struct {
	Provider        string  `yaml:"provider"`
	Model           string  `yaml:"model"`
	APIKey          string  `yaml:"api_key"`
	BaseURL         string  `yaml:"base_url"`
	WebGrounding    bool    `yaml:"web_grounding"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Temperature     float64 `yaml:"temperature"`
	MaxRetries      int     `yaml:"max_retries"`
}

type StorageConfig struct {
	S3 S3Options `yaml:"s3"`
}

// S3Options configures the bucket that s3:// document references are read from.
type S3Options struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyleAccess bool   `yaml:"path_style_access"`
}

// DocumentsConfig limits where document references may be read from.
type DocumentsConfig struct {
	MaxBytes    int64         `yaml:"max_bytes"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Root        string        `yaml:"root"`
	AllowRemote bool          `yaml:"allow_remote"`
	RemoteHosts []string      `yaml:"remote_hosts"`
}

type rawAppConfig struct {
	Port           int               `yaml:"port"`
	DSN            string            `yaml:"dsn"`
	RedisURL       string            `yaml:"redis_url"`
	Database       rawDatabaseConfig `yaml:"database"`
	Redis          rawRedisConfig    `yaml:"redis"`
	Env            string            `yaml:"env"`
	Paths          rawPathsConfig    `yaml:"paths"`
	LogDir         string            `yaml:"log_dir"`
	TmpDir         string            `yaml:"tmp_dir"`
	AllowedOrigins []string          `yaml:"allowed_origins"`
	Timezone       string            `yaml:"timezone"`
	AutoMigrate    *bool             `yaml:"auto_migrate"`
	LLM            rawLLMConfig      `yaml:"llm"`
	Storage        rawStorageConfig  `yaml:"storage"`
	Documents      rawDocumentConfig `yaml:"documents"`
}

type rawDatabaseConfig struct {
	Driver    string            `yaml:"driver"`
	Path      string            `yaml:"path"`
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
	Tmp  string `yaml:"tmp"`
}

type rawLLMConfig struct {
	Provider        string   `yaml:"provider"`
	Model           string   `yaml:"model"`
	APIKey          string   `yaml:"api_key"`
	BaseURL         string   `yaml:"base_url"`
	WebGrounding    *bool    `yaml:"web_grounding"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
	Temperature     *float64 `yaml:"temperature"`
	MaxRetries      *int     `yaml:"max_retries"`
}

type rawStorageConfig struct {
	S3 rawS3Options `yaml:"s3"`
}

type rawS3Options struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyleAccess *bool  `yaml:"path_style_access"`
}

type rawDocumentConfig struct {
	MaxBytes    int64    `yaml:"max_bytes"`
	HTTPTimeout string   `yaml:"http_timeout"`
	Root        string   `yaml:"root"`
	AllowRemote *bool    `yaml:"allow_remote"`
	RemoteHosts []string `yaml:"remote_hosts"`
}
