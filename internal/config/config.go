package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at configPath and returns the normalized runtime config.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML bytes. Unknown keys are rejected.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	if err := applyRawAppConfig(&cfg, raw); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("invalid database.driver %q, expected mysql or sqlite", c.Database.Driver)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderCustom, ProviderOllama, ProviderGoogle, ProviderAnthropic:
	default:
		return fmt.Errorf("invalid llm.provider %q, expected one of openai, custom, ollama, google, anthropic", c.LLM.Provider)
	}
	if c.LLM.Provider == ProviderCustom && c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required for the custom provider")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required for provider %q", c.LLM.Provider)
	}
	if c.LLM.MaxOutputTokens < 0 {
		return fmt.Errorf("invalid llm.max_output_tokens %d", c.LLM.MaxOutputTokens)
	}
	if c.Documents.MaxBytes <= 0 {
		return fmt.Errorf("invalid documents.max_bytes %d, expected > 0", c.Documents.MaxBytes)
	}
	return nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		AutoMigrate: true,
		LLM: LLMConfig{
			Provider:        defaultLLMProvider,
			MaxOutputTokens: defaultMaxOutputTokens,
			MaxRetries:      2,
		},
		Documents: DocumentsConfig{
			MaxBytes:    defaultDocumentMaxBytes,
			HTTPTimeout: defaultDocumentHTTPSecond * time.Second,
		},
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = normalizeEnv(v)
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}
	if raw.AutoMigrate != nil {
		cfg.AutoMigrate = *raw.AutoMigrate
	}
	if len(raw.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}

	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.Paths.Tmp); v != "" {
		cfg.Paths.Tmp = v
	}
	if v := strings.TrimSpace(raw.TmpDir); v != "" {
		cfg.Paths.Tmp = v
	}

	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw.Database)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	cfg.RedisURL = cfg.Redis.URLValue()
	if v := normalizeRedisRawURL(raw.RedisURL); v != "" {
		cfg.RedisURL = v
	}

	cfg.LLM = normalizeLLMConfig(applyRawLLMConfig(cfg.LLM, raw.LLM))
	cfg.Storage.S3 = applyRawS3Options(cfg.Storage.S3, raw.Storage.S3)

	if raw.Documents.MaxBytes != 0 {
		cfg.Documents.MaxBytes = raw.Documents.MaxBytes
	}
	if v := strings.TrimSpace(raw.Documents.HTTPTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid documents.http_timeout %q: %w", v, err)
		}
		cfg.Documents.HTTPTimeout = d
	}
	if v := strings.TrimSpace(raw.Documents.Root); v != "" {
		cfg.Documents.Root = v
	}
	if raw.Documents.AllowRemote != nil {
		cfg.Documents.AllowRemote = *raw.Documents.AllowRemote
	}
	if len(raw.Documents.RemoteHosts) > 0 {
		cfg.Documents.RemoteHosts = normalizeHosts(raw.Documents.RemoteHosts)
	}
	return nil
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawDatabaseConfig) DatabaseRuntimeConfig {
	if v := strings.TrimSpace(raw.Driver); v != "" {
		current.Driver = v
	}
	if v := strings.TrimSpace(raw.Path); v != "" {
		current.Path = v
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		current.DSN = v
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		current.Host = v
	}
	if raw.Port != 0 {
		current.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.User); v != "" {
		current.User = v
	}
	if raw.Password != "" {
		current.Password = raw.Password
	}
	if v := strings.TrimSpace(raw.Name); v != "" {
		current.Name = v
	}
	if v := strings.TrimSpace(raw.Charset); v != "" {
		current.Charset = v
	}
	if raw.ParseTime != nil {
		current.ParseTime = *raw.ParseTime
	}
	if v := strings.TrimSpace(raw.Loc); v != "" {
		current.Loc = v
	}
	if len(raw.Params) > 0 {
		current.Params = copyStringMap(raw.Params)
	}
	return normalizeDatabaseConfig(current)
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawRedisConfig) RedisRuntimeConfig {
	if v := strings.TrimSpace(raw.URL); v != "" {
		current.URL = v
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		current.Host = v
	}
	if raw.Port != 0 {
		current.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Username); v != "" {
		current.Username = v
	}
	if raw.Password != "" {
		current.Password = raw.Password
	}
	if raw.DB != nil {
		current.DB = *raw.DB
	}
	if raw.TLS != nil {
		current.TLS = *raw.TLS
	}
	return normalizeRedisConfig(current)
}

func applyRawLLMConfig(current LLMConfig, raw rawLLMConfig) LLMConfig {
	if v := strings.TrimSpace(raw.Provider); v != "" {
		current.Provider = v
	}
	if v := strings.TrimSpace(raw.Model); v != "" {
		current.Model = v
	}
	if v := strings.TrimSpace(raw.APIKey); v != "" {
		current.APIKey = v
	}
	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		current.BaseURL = v
	}
	if raw.WebGrounding != nil {
		current.WebGrounding = *raw.WebGrounding
	}
	if raw.MaxOutputTokens != 0 {
		current.MaxOutputTokens = raw.MaxOutputTokens
	}
	if raw.Temperature != nil {
		current.Temperature = *raw.Temperature
	}
	if raw.MaxRetries != nil {
		current.MaxRetries = *raw.MaxRetries
	}
	return current
}

func applyRawS3Options(current S3Options, raw rawS3Options) S3Options {
	if v := strings.TrimSpace(raw.Bucket); v != "" {
		current.Bucket = v
	}
	if v := strings.TrimSpace(raw.Region); v != "" {
		current.Region = v
	}
	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		current.Endpoint = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.AccessKeyID); v != "" {
		current.AccessKeyID = v
	}
	if v := strings.TrimSpace(raw.SecretAccessKey); v != "" {
		current.SecretAccessKey = v
	}
	if raw.PathStyleAccess != nil {
		current.PathStyleAccess = *raw.PathStyleAccess
	}
	return current
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

// SQLitePath is the database file used by the sqlite driver.
func (c *AppConfig) SQLitePath() string {
	if c == nil {
		return ResolveRuntimePath("", defaultSQLitePath)
	}
	return ResolveRuntimePath(c.Database.Path, defaultSQLitePath)
}

// TmpDir is the parent directory for per-stream scratch directories.
func (c *AppConfig) TmpDir() string {
	if c == nil {
		return ResolveRuntimePath("", "tmp")
	}
	return ResolveRuntimePath(c.Paths.Tmp, "tmp")
}

// DocumentsRoot is the only directory local document references may read from.
func (c *AppConfig) DocumentsRoot() string {
	if c == nil {
		return ResolveRuntimePath("", defaultDocumentsRoot)
	}
	return ResolveRuntimePath(c.Documents.Root, defaultDocumentsRoot)
}

// Configured reports whether enough S3 settings are present to build a client.
func (o S3Options) Configured() bool {
	return o.Region != "" && o.AccessKeyID != "" && o.SecretAccessKey != ""
}
