package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 8000
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "presenton"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultLLMProvider        = ProviderOpenAI
	defaultMaxOutputTokens    = 8192
	defaultDocumentMaxBytes   = 20 << 20
	defaultDocumentHTTPSecond = 30
	defaultDocumentsRoot      = "uploads"
)

// Database drivers accepted in database.driver.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	defaultSQLitePath = "data/presenton.db"
)

// LLM provider identifiers accepted in llm.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderCustom    = "custom"
	ProviderOllama    = "ollama"
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
)

var providerDefaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4.1",
	ProviderOllama:    "llama3.2:3b",
	ProviderGoogle:    "gemini-2.0-flash",
	ProviderAnthropic: "claude-3-5-sonnet-20241022",
}

const defaultOllamaBaseURL = "http://localhost:11434"
