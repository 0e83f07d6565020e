package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port            int           `yaml:"port" default:"5000"`
		Host            string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"180s"`
		IdleTimeout     time.Duration `yaml:"idle_timeout" default:"60s"`
		RequestTimeout  time.Duration `yaml:"request_timeout" default:"150s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
	} `yaml:"server"`

	GRPC struct {
		Enabled        bool `yaml:"enabled" default:"true"`
		MaxRecvMsgSize int  `yaml:"max_recv_msg_size" default:"16777216"`
	} `yaml:"grpc"`

	LLM struct {
		Provider  string        `yaml:"provider" default:"openai"`
		APIKey    string        `yaml:"api_key"`
		Model     string        `yaml:"model"`
		BaseURL   string        `yaml:"base_url"`
		MaxTokens int           `yaml:"max_tokens" default:"1000"`
		Timeout   time.Duration `yaml:"timeout" default:"120s"`
	} `yaml:"llm"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins" default:"http://localhost:3000"`
	} `yaml:"cors"`

	Upload struct {
		Dir      string `yaml:"dir" default:"uploads"`
		MaxBytes int64  `yaml:"max_bytes" default:"10485760"`
	} `yaml:"upload"`

	RateLimit struct {
		RequestsPerMinute int    `yaml:"requests_per_minute" default:"0"` // 0 disables limiting
		Burst             int    `yaml:"burst" default:"5"`
		RedisURL          string `yaml:"redis_url"` // shared fixed-window counters when set
	} `yaml:"rate_limit"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// Default returns a configuration populated with defaults only
func Default() *Config {
	config := &Config{}

	config.Server.Port = 5000
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 180 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.RequestTimeout = 150 * time.Second
	config.Server.ShutdownTimeout = 30 * time.Second

	config.GRPC.Enabled = true
	config.GRPC.MaxRecvMsgSize = 16 * 1024 * 1024

	config.LLM.Provider = "openai"
	config.LLM.MaxTokens = 1000
	config.LLM.Timeout = 120 * time.Second

	config.CORS.AllowedOrigins = []string{"http://localhost:3000"}

	config.Upload.Dir = "uploads"
	config.Upload.MaxBytes = 10 * 1024 * 1024

	config.RateLimit.RequestsPerMinute = 0
	config.RateLimit.Burst = 5

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if requestTimeout := os.Getenv("REQUEST_TIMEOUT"); requestTimeout != "" {
		if timeout, err := time.ParseDuration(requestTimeout); err == nil {
			c.Server.RequestTimeout = timeout
		}
	}

	if grpcEnabled := os.Getenv("GRPC_ENABLED"); grpcEnabled != "" {
		c.GRPC.Enabled = grpcEnabled == "true" || grpcEnabled == "1"
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = strings.ToLower(provider)
	}

	// Provider specific keys win over the generic one
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}
	if apiKey := os.Getenv(providerKeyEnv(c.LLM.Provider)); apiKey != "" {
		c.LLM.APIKey = apiKey
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		c.LLM.BaseURL = baseURL
	}

	if llmTimeout := os.Getenv("LLM_TIMEOUT"); llmTimeout != "" {
		if timeout, err := time.ParseDuration(llmTimeout); err == nil {
			c.LLM.Timeout = timeout
		}
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		var allowed []string
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowed = append(allowed, origin)
			}
		}
		if len(allowed) > 0 {
			c.CORS.AllowedOrigins = allowed
		}
	}

	if uploadDir := os.Getenv("UPLOAD_DIR"); uploadDir != "" {
		c.Upload.Dir = uploadDir
	}

	if maxBytes := os.Getenv("UPLOAD_MAX_BYTES"); maxBytes != "" {
		if n, err := strconv.ParseInt(maxBytes, 10, 64); err == nil {
			c.Upload.MaxBytes = n
		}
	}

	if rpm := os.Getenv("RATE_LIMIT_RPM"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			c.RateLimit.RequestsPerMinute = n
		}
	}

	if redisURL := os.Getenv("RATE_LIMIT_REDIS_URL"); redisURL != "" {
		c.RateLimit.RedisURL = redisURL
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		c.Logging.Output = logFile
	}
}

// providerKeyEnv maps a provider name to its conventional API key variable
func providerKeyEnv(provider string) string {
	switch provider {
	case "claude", "anthropic":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// HasLLMCredentials reports whether an API key is configured for the provider
func (c *Config) HasLLMCredentials() bool {
	return c.LLM.Provider == "mock" || c.LLM.APIKey != ""
}
