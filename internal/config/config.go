package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/Totarae/relay/internal/jsoncodec"
)

// Значения по умолчанию совпадают с фиксированными адресами релея
const (
	DefaultServerAddress   = ":8080"
	DefaultDownstreamURL   = "http://127.0.0.1:8000/"
	DefaultDownstreamTTL   = 10 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	// DefaultMaxBodySize предел распакованного тела запроса, байт
	DefaultMaxBodySize int64 = 1 << 20
)

// Config хранит конфигурацию сервера
type Config struct {
	ServerAddress     string        `json:"server_address"`
	DownstreamURL     string        `json:"downstream_url"`
	DownstreamTimeout time.Duration `json:"-"`
	GRPCAddress       string        `json:"grpc_address"`
	ShutdownTimeout   time.Duration `json:"-"`
	MaxBodySize       int64         `json:"max_body_size"`
}

// fileConfig формат JSON-файла конфигурации; длительности задаются строками ("5s").
type fileConfig struct {
	ServerAddress     string `json:"server_address"`
	DownstreamURL     string `json:"downstream_url"`
	DownstreamTimeout string `json:"downstream_timeout"`
	GRPCAddress       string `json:"grpc_address"`
	ShutdownTimeout   string `json:"shutdown_timeout"`
	MaxBodySize       int64  `json:"max_body_size"`
}

// NewConfig читает конфигурацию из аргументов командной строки процесса.
func NewConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load собирает конфигурацию. Приоритет: флаги > переменные окружения (.env) > JSON-файл > значения по умолчанию.
func Load(args []string) (*Config, error) {
	cfg := &Config{
		ServerAddress:     DefaultServerAddress,
		DownstreamURL:     DefaultDownstreamURL,
		DownstreamTimeout: DefaultDownstreamTTL,
		ShutdownTimeout:   DefaultShutdownTimeout,
		MaxBodySize:       DefaultMaxBodySize,
	}

	fs := flag.NewFlagSet("relay", flag.ContinueOnError)
	serverAddress := fs.String("a", "", "server address")
	downstreamURL := fs.String("d", "", "downstream URL")
	downstreamTimeout := fs.String("t", "", "downstream timeout (0 disables)")
	grpcAddress := fs.String("g", "", "gRPC server address (empty disables)")
	maxBodySize := fs.String("m", "", "max decompressed request body size in bytes")
	configPath := fs.String("c", "", "path to JSON config file")
	fs.StringVar(configPath, "config", "", "path to JSON config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()
	// Читаем .env, если есть (не переопределяет переменные окружения)
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	if *configPath == "" {
		*configPath = v.GetString("CONFIG")
	}
	if *configPath != "" {
		if err := applyFile(cfg, *configPath); err != nil {
			return nil, err
		}
	}

	var errs []error
	override := func(value string, target *string) {
		if value != "" {
			*target = value
		}
	}
	overrideDuration := func(name, value string, target *time.Duration) {
		if value == "" {
			return
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*target = d
	}
	overrideSize := func(name, value string, target *int64) {
		if value == "" {
			return
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*target = n
	}

	override(v.GetString("SERVER_ADDRESS"), &cfg.ServerAddress)
	override(v.GetString("DOWNSTREAM_URL"), &cfg.DownstreamURL)
	override(v.GetString("GRPC_ADDRESS"), &cfg.GRPCAddress)
	overrideDuration("DOWNSTREAM_TIMEOUT", v.GetString("DOWNSTREAM_TIMEOUT"), &cfg.DownstreamTimeout)
	overrideDuration("SHUTDOWN_TIMEOUT", v.GetString("SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout)
	overrideSize("MAX_BODY_SIZE", v.GetString("MAX_BODY_SIZE"), &cfg.MaxBodySize)

	override(*serverAddress, &cfg.ServerAddress)
	override(*downstreamURL, &cfg.DownstreamURL)
	override(*grpcAddress, &cfg.GRPCAddress)
	overrideDuration("-t", *downstreamTimeout, &cfg.DownstreamTimeout)
	overrideSize("-m", *maxBodySize, &cfg.MaxBodySize)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file %q: %w", path, err)
	}
	defer f.Close()

	var fc fileConfig
	if err := jsoncodec.Decode(f, &fc); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	if fc.ServerAddress != "" {
		cfg.ServerAddress = fc.ServerAddress
	}
	if fc.DownstreamURL != "" {
		cfg.DownstreamURL = fc.DownstreamURL
	}
	if fc.GRPCAddress != "" {
		cfg.GRPCAddress = fc.GRPCAddress
	}
	if fc.MaxBodySize != 0 {
		cfg.MaxBodySize = fc.MaxBodySize
	}
	if fc.DownstreamTimeout != "" {
		d, err := time.ParseDuration(fc.DownstreamTimeout)
		if err != nil {
			return fmt.Errorf("config file downstream_timeout: %w", err)
		}
		cfg.DownstreamTimeout = d
	}
	if fc.ShutdownTimeout != "" {
		d, err := time.ParseDuration(fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("config file shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

// Validate проверяет корректность конфигурации
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.ServerAddress == "" {
		errs = append(errs, errors.New("server address must not be empty"))
	}
	u, err := url.Parse(cfg.DownstreamURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("downstream URL: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("downstream URL %q: scheme must be http or https", cfg.DownstreamURL))
	case u.Host == "":
		errs = append(errs, fmt.Errorf("downstream URL %q: host is empty", cfg.DownstreamURL))
	}
	if cfg.DownstreamTimeout < 0 {
		errs = append(errs, errors.New("downstream timeout cannot be negative"))
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("shutdown timeout cannot be negative"))
	}
	if cfg.MaxBodySize <= 0 {
		errs = append(errs, errors.New("max body size must be positive"))
	}
	return errors.Join(errs...)
}
