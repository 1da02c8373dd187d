package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Dispatcher backends
const (
	DispatcherPool  = "pool"
	DispatcherQueue = "queue"
)

// Job store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Speech    SpeechConfig    `yaml:"speech"`
	Inference InferenceConfig `yaml:"inference"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Logging   LoggingConfig   `yaml:"logging"`
	App       AppConfig       `yaml:"app"`
	Worker    WorkerConfig    `yaml:"worker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig holds the on-disk layout for videos, audio, and reports
type StorageConfig struct {
	VideoDir       string `yaml:"video_dir"`
	AudioDir       string `yaml:"audio_dir"`
	ResultsDir     string `yaml:"results_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	MaxAudioBytes  int64  `yaml:"max_audio_bytes"`
	FFmpegPath     string `yaml:"ffmpeg_path"`
	FFprobePath    string `yaml:"ffprobe_path"`
}

// JobsConfig selects the job store and dispatch backends
type JobsConfig struct {
	// StoreBackend is "memory" or "postgres". The queue dispatcher
	// requires postgres so both services observe the same records.
	StoreBackend string `yaml:"store_backend"`
	// Dispatcher is "pool" (in-process) or "queue" (RabbitMQ).
	Dispatcher string `yaml:"dispatcher"`
}

// SpeechConfig holds the transcription provider settings
type SpeechConfig struct {
	Region          string   `yaml:"region"`
	SubscriptionKey string   `yaml:"subscription_key"`
	Locales         []string `yaml:"locales"`
	MaxSpeakers     int      `yaml:"max_speakers"`
	APIVersion      string   `yaml:"api_version"`
}

// InferenceConfig holds the generative inference provider settings
type InferenceConfig struct {
	APIKey                string        `yaml:"api_key"`
	ModelID               string        `yaml:"model_id"`
	FileActivationTimeout time.Duration `yaml:"file_activation_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	// PrefetchCount caps unacknowledged deliveries per worker channel.
	// Zero lets the worker default it to its concurrency.
	PrefetchCount int `yaml:"prefetch_count"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level            string `yaml:"level"`
	Format           string `yaml:"format"`
	Output           string `yaml:"output"`
	EnableCaller     bool   `yaml:"enable_caller"`
	EnableStackTrace bool   `yaml:"enable_stack_trace"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds processing pool configuration
type WorkerConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	QueueCapacity   int           `yaml:"queue_capacity"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Load reads and parses the configuration file. Provider credentials can
// be supplied via environment instead of the file: AZURE_SPEECH_KEY and
// GEMINI_API_KEY take precedence when set.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if key := os.Getenv("AZURE_SPEECH_KEY"); key != "" {
		config.Speech.SubscriptionKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Inference.APIKey = key
	}

	return &config, nil
}

// ValidateAPIConfig checks the configuration the API service needs
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Storage.VideoDir == "" {
		return fmt.Errorf("storage video_dir is required")
	}

	switch c.Jobs.Dispatcher {
	case DispatcherPool:
		// In-process dispatch also runs the pipeline, so the API binary
		// carries the worker-side requirements.
		if err := c.validatePipeline(); err != nil {
			return err
		}
	case DispatcherQueue:
		if c.Jobs.StoreBackend != StorePostgres {
			return fmt.Errorf("queue dispatcher requires the postgres store backend")
		}
		if err := c.validateRabbitMQ(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid jobs dispatcher: %q (must be %q or %q)", c.Jobs.Dispatcher, DispatcherPool, DispatcherQueue)
	}

	if err := c.validateStoreBackend(); err != nil {
		return err
	}

	return nil
}

// ValidateWorkerConfig checks the configuration the worker service needs
func (c *Config) ValidateWorkerConfig() error {
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Jobs.StoreBackend != StorePostgres {
		return fmt.Errorf("worker service requires the postgres store backend")
	}

	if err := c.validateStoreBackend(); err != nil {
		return err
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	return c.validatePipeline()
}

// validatePipeline checks what the analysis pipeline itself needs.
func (c *Config) validatePipeline() error {
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Storage.AudioDir == "" {
		return fmt.Errorf("storage audio_dir is required")
	}

	if c.Storage.ResultsDir == "" {
		return fmt.Errorf("storage results_dir is required")
	}

	if c.Speech.Region == "" {
		return fmt.Errorf("speech region is required")
	}

	if c.Speech.SubscriptionKey == "" {
		return fmt.Errorf("speech subscription key is required (config or AZURE_SPEECH_KEY)")
	}

	if len(c.Speech.Locales) == 0 {
		return fmt.Errorf("speech locales are required")
	}

	if c.Speech.MaxSpeakers < 1 {
		return fmt.Errorf("speech max_speakers must be at least 1")
	}

	if c.Inference.APIKey == "" {
		return fmt.Errorf("inference api key is required (config or GEMINI_API_KEY)")
	}

	if c.Inference.ModelID == "" {
		return fmt.Errorf("inference model_id is required")
	}

	return nil
}

func (c *Config) validateStoreBackend() error {
	switch c.Jobs.StoreBackend {
	case StoreMemory:
		return nil
	case StorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		return nil
	default:
		return fmt.Errorf("invalid jobs store backend: %q (must be %q or %q)", c.Jobs.StoreBackend, StoreMemory, StorePostgres)
	}
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	return nil
}
