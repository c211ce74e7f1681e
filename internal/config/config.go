package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Providers    ProvidersConfig    `mapstructure:"providers"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Retrieval    RetrievalConfig    `mapstructure:"retrieval"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Log          LogConfig          `mapstructure:"log"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Session      SessionConfig      `mapstructure:"session"`
	Storage      StorageConfig      `mapstructure:"storage"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ProviderConfig 单个文本生成后端的连接参数
type ProviderConfig struct {
	Name         string        `mapstructure:"name"`
	Kind         string        `mapstructure:"kind"` // openai | doubao | qwen
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  float32       `mapstructure:"temperature"`
	TopP         float32       `mapstructure:"top_p"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DebugRequest bool          `mapstructure:"debug_request"`
}

type ProvidersConfig struct {
	Primary   ProviderConfig   `mapstructure:"primary"`
	Fallbacks []ProviderConfig `mapstructure:"fallbacks"`
}

type OrchestratorConfig struct {
	MaxRetries       int           `mapstructure:"max_retries"`
	BackoffFactor    float64       `mapstructure:"backoff_factor"`
	BaseDelay        time.Duration `mapstructure:"base_delay"`
	MaxDelay         time.Duration `mapstructure:"max_delay"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerReset     time.Duration `mapstructure:"breaker_reset"`
}

type CacheConfig struct {
	Dir           string        `mapstructure:"dir"`
	Capacity      int           `mapstructure:"capacity"`
	TTL           time.Duration `mapstructure:"ttl"`
	SaveInterval  time.Duration `mapstructure:"save_interval"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
}

type RetrievalConfig struct {
	KnowledgeBase  string `mapstructure:"knowledge_base"`
	TopK           int    `mapstructure:"top_k"`
	FusionK        int    `mapstructure:"fusion_k"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type SessionConfig struct {
	TTL               time.Duration `mapstructure:"ttl"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	// GenerationTimeout 单次生成或修改的预算，超出后退回模板或规则
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
}

type StorageConfig struct {
	Type           string        `mapstructure:"type"`
	DataDir        string        `mapstructure:"data_dir"`
	CacheSize      int           `mapstructure:"cache_size"`
	// BackupInterval 为 0 时不做定期备份
	BackupInterval time.Duration `mapstructure:"backup_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.request_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("providers.primary.name", "openai")
	v.SetDefault("providers.primary.kind", "openai")
	v.SetDefault("providers.primary.model", "gpt-4o-mini")
	v.SetDefault("providers.primary.timeout", 60*time.Second)

	v.SetDefault("orchestrator.max_retries", 3)
	v.SetDefault("orchestrator.backoff_factor", 2.0)
	v.SetDefault("orchestrator.base_delay", 500*time.Millisecond)
	v.SetDefault("orchestrator.max_delay", 10*time.Second)
	v.SetDefault("orchestrator.request_timeout", 45*time.Second)
	v.SetDefault("orchestrator.breaker_threshold", 5)
	v.SetDefault("orchestrator.breaker_reset", 60*time.Second)

	v.SetDefault("cache.dir", "./data/cache")
	v.SetDefault("cache.capacity", 500)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.save_interval", 5*time.Minute)
	v.SetDefault("cache.redis_prefix", "wireframe:ai_response:")

	v.SetDefault("retrieval.top_k", 5)
	v.SetDefault("retrieval.fusion_k", 60)
	v.SetDefault("retrieval.max_concurrency", 4)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cleanup_interval", 10*time.Minute)
	v.SetDefault("session.generation_timeout", 60*time.Second)

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.cache_size", 200)
}

// Load 读取配置文件；路径为空或文件不存在时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WIREFRAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// 配置文件优先，如果配置文件中没有设置，则使用环境变量
	applyKeyFromEnv(&cfg.Providers.Primary)
	for i := range cfg.Providers.Fallbacks {
		applyKeyFromEnv(&cfg.Providers.Fallbacks[i])
	}

	return cfg, nil
}

func applyKeyFromEnv(p *ProviderConfig) {
	if p.APIKey != "" {
		return
	}
	var keys []string
	switch p.Kind {
	case "openai":
		keys = []string{"OPENAI_API_KEY"}
	case "doubao":
		keys = []string{"DOUBAO_API_KEY", "ARK_API_KEY"}
	case "qwen":
		keys = []string{"DASHSCOPE_API_KEY", "QWEN_API_KEY"}
	}
	for _, k := range keys {
		if val := os.Getenv(k); val != "" {
			p.APIKey = val
			return
		}
	}
}
