package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
)

type Config struct {
	// Model Configuration
	ModelDir   string `validate:"required"`
	ModelCache bool

	// HTTP Configuration
	HTTPAddr           string        `validate:"required"`
	HTTPMaxUploadBytes int64         `validate:"min=1"`
	HTTPRateLimit      int           `validate:"min=0"` // uploads per minute per client, 0 disables
	HTTPReadTimeout    time.Duration `validate:"min=0"`
	HTTPWriteTimeout   time.Duration `validate:"min=0"`

	// Logging Configuration
	LogLevel  string `validate:"oneof=trace debug info warn warning error fatal disabled off"`
	LogFormat string `validate:"oneof=json console"`

	// MQTT Configuration
	MQTTEnabled            bool
	MQTTBroker             string `validate:"required_if=MQTTEnabled true"`
	MQTTClientID           string `validate:"required_if=MQTTEnabled true"`
	MQTTUsername           string
	MQTTPassword           string
	MQTTTopicDetectReq     string `validate:"required_if=MQTTEnabled true"`
	MQTTTopicDetectResult  string `validate:"required_if=MQTTEnabled true"`
	MQTTWorkers            int    `validate:"min=1"`
	MQTTRequestChannelSize int    `validate:"min=1"`

	// ClickHouse Configuration
	ClickHouseEnabled bool
	ClickHouseAddr    string `validate:"required_if=ClickHouseEnabled true"`
	ClickHouseDB      string `validate:"required_if=ClickHouseEnabled true"`
	ClickHouseUser    string
	ClickHousePass    string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		// Model Configuration
		ModelDir:   getEnv("MODEL_DIR", "./models"),
		ModelCache: getEnvBool("MODEL_CACHE", true),

		// HTTP Configuration
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		HTTPMaxUploadBytes: getEnvInt64("HTTP_MAX_UPLOAD_BYTES", 32<<20),
		HTTPRateLimit:      getEnvInt("HTTP_RATE_LIMIT", 60),
		HTTPReadTimeout:    getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second),
		HTTPWriteTimeout:   getEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),

		// Logging Configuration
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		// MQTT Configuration
		MQTTEnabled:            getEnvBool("MQTT_ENABLED", false),
		MQTTBroker:             getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:           getEnv("MQTT_CLIENT_ID", "ai-ids"),
		MQTTUsername:           getEnv("MQTT_USERNAME", ""),
		MQTTPassword:           getEnv("MQTT_PASSWORD", ""),
		MQTTTopicDetectReq:     getEnv("MQTT_TOPIC_DETECT_REQ", "ids/+/logs"),
		MQTTTopicDetectResult:  getEnv("MQTT_TOPIC_DETECT_RESULT", "ids/{device}/results"),
		MQTTWorkers:            getEnvInt("MQTT_WORKERS", 2),
		MQTTRequestChannelSize: getEnvInt("MQTT_REQUEST_CHANNEL_SIZE", 32),

		// ClickHouse Configuration
		ClickHouseEnabled: getEnvBool("CLICKHOUSE_ENABLED", false),
		ClickHouseAddr:    getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:      getEnv("CLICKHOUSE_DB", "ids"),
		ClickHouseUser:    getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass:    getEnv("CLICKHOUSE_PASS", ""),
	}
}

// Validate checks the loaded values and reports every invalid field at once.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("failed to parse int, using default")
		return defaultValue
	}
	return intValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("failed to parse int64, using default")
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("failed to parse bool, using default")
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("failed to parse duration, using default")
		return defaultValue
	}
	return d
}
