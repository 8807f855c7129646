package ingredientagent

import "time"

const (
	ProviderBedrock = "bedrock"
	ProviderOllama  = "ollama"
	ProviderGemini  = "gemini"
	ProviderMock    = "mock"
)

type ModelConfig struct {
	Provider    string  `env:"LLM_PROVIDER,default=bedrock"`
	ModelID     string  `env:"MODEL_ID"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=4096"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type AgentConfig struct {
	KnowledgeBasePath   string  `env:"KNOWLEDGE_BASE_PATH,default=artifacts/ingredients.json"`
	BaseOllamaEndpoint  string  `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	GoogleAPIKey        string  `env:"GOOGLE_API_KEY"`
	MaxRetries          int     `env:"MAX_RETRIES,default=2"`
	MaxSteps            int     `env:"MAX_STEPS,default=50"`
	BatchSize           int     `env:"BATCH_SIZE,default=3"`
	ConfidenceThreshold float64 `env:"CONFIDENCE_THRESHOLD,default=0.7"`
	DumpState           bool    `env:"DUMP_STATE,default=false"`
}

type SessionConfig struct {
	RedisURL     string        `env:"REDIS_URL"`
	TTL          time.Duration `env:"SESSION_TTL,default=24h"`
	HistoryLimit int           `env:"HISTORY_LIMIT,default=10"`
}

type NotifyConfig struct {
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"SLACK_CHANNEL,default=#ingredient-reports"`
}
