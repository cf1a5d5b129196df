package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Mode хранилище, выбранное конфигурацией.
type Mode string

const (
	ModePostgres Mode = "postgres"
	ModeMongo    Mode = "mongo"
	ModeMemory   Mode = "memory"
)

// Config хранит конфигурацию сервера
type Config struct {
	ServerAddress    string
	BaseURL          string
	GRPCAddress      string
	FileStoragePath  string
	DatabaseDSN      string
	PgMigrationsPath string
	MongoURI         string
	MongoDatabase    string
	JWTSecret        string
	TokenTTL         time.Duration
	AdminEmail       string
	CORSOrigins      []string
	EnableHTTPS      bool
	TLSCertPath      string
	TLSKeyPath       string
	ShutdownTimeout  time.Duration
	Mode             Mode
}

var keys = []string{
	"SERVER_ADDRESS", "BASE_URL", "GRPC_ADDRESS", "FILE_STORAGE_PATH",
	"DATABASE_DSN", "PG_MIGRATIONS_PATH", "MONGO_URI", "MONGO_DATABASE",
	"JWT_SECRET", "TOKEN_TTL", "ADMIN_EMAIL", "CORS_ORIGINS",
	"ENABLE_HTTPS", "TLS_CERT_PATH", "TLS_KEY_PATH", "SHUTDOWN_TIMEOUT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", "localhost:8080") // Значения по умолчанию
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("GRPC_ADDRESS", "")
	v.SetDefault("FILE_STORAGE_PATH", "")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("PG_MIGRATIONS_PATH", "") // пусто: встроенные миграции
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "shortener")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("ENABLE_HTTPS", false)
	v.SetDefault("TLS_CERT_PATH", "cert.pem")
	v.SetDefault("TLS_KEY_PATH", "key.pem")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
}

// Load собирает конфигурацию. Приоритет по возрастанию: значения по умолчанию,
// JSON-файл (-c/-config или CONFIG), файл .env, переменные окружения, флаги.
func Load(args []string, logger *zap.Logger) (*Config, error) {
	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)

	// Определяем флаги, но НЕ задаем в них значения по умолчанию
	serverAddress := fs.String("a", "", "server address")
	baseURL := fs.String("b", "", "base URL")
	grpcAddress := fs.String("g", "", "gRPC listen address")
	fileStoragePath := fs.String("f", "", "file storage path (JSON lines journal)")
	databaseDSN := fs.String("d", "", "PostgreSQL DSN")
	mongoURI := fs.String("m", "", "MongoDB URI")
	jwtSecret := fs.String("j", "", "JWT signing secret")
	adminEmail := fs.String("admin", "", "email that is registered with the admin role")
	enableHTTPS := fs.Bool("s", false, "enable HTTPS")
	tlsCertPath := fs.String("cert", "", "path to TLS certificate")
	tlsKeyPath := fs.String("key", "", "path to TLS key")
	envFile := fs.String("env", ".env", "path to .env file")
	configPath := fs.String("c", "", "path to JSON config file")
	fs.StringVar(configPath, "config", "", "path to JSON config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if *configPath == "" {
		*configPath = os.Getenv("CONFIG")
	}
	if *configPath != "" {
		v.SetConfigFile(*configPath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", *configPath, err)
		}
	}

	// .env не переопределяет переменные окружения
	if *envFile != "" {
		if _, err := os.Stat(*envFile); err == nil {
			v.SetConfigFile(*envFile)
			v.SetConfigType("env")
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("read env file %q: %w", *envFile, err)
			}
		}
	}

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		ServerAddress:    v.GetString("SERVER_ADDRESS"),
		BaseURL:          strings.TrimRight(v.GetString("BASE_URL"), "/"),
		GRPCAddress:      v.GetString("GRPC_ADDRESS"),
		FileStoragePath:  v.GetString("FILE_STORAGE_PATH"),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		PgMigrationsPath: v.GetString("PG_MIGRATIONS_PATH"),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDatabase:    v.GetString("MONGO_DATABASE"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		AdminEmail:       v.GetString("ADMIN_EMAIL"),
		CORSOrigins:      splitList(v.GetString("CORS_ORIGINS")),
		EnableHTTPS:      v.GetBool("ENABLE_HTTPS"),
		TLSCertPath:      v.GetString("TLS_CERT_PATH"),
		TLSKeyPath:       v.GetString("TLS_KEY_PATH"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	// Если флаг передан, он важнее окружения
	override := func(flagVal string, target *string) {
		if flagVal != "" {
			*target = flagVal
		}
	}
	override(*serverAddress, &cfg.ServerAddress)
	override(*baseURL, &cfg.BaseURL)
	override(*grpcAddress, &cfg.GRPCAddress)
	override(*fileStoragePath, &cfg.FileStoragePath)
	override(*databaseDSN, &cfg.DatabaseDSN)
	override(*mongoURI, &cfg.MongoURI)
	override(*jwtSecret, &cfg.JWTSecret)
	override(*adminEmail, &cfg.AdminEmail)
	override(*tlsCertPath, &cfg.TLSCertPath)
	override(*tlsKeyPath, &cfg.TLSKeyPath)
	if *enableHTTPS {
		cfg.EnableHTTPS = true
	}

	// Определяем режим работы
	switch {
	case cfg.DatabaseDSN != "":
		cfg.Mode = ModePostgres
	case cfg.MongoURI != "":
		cfg.Mode = ModeMongo
	default:
		cfg.Mode = ModeMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("configuration loaded",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("grpc_address", cfg.GRPCAddress),
		zap.String("base_url", cfg.BaseURL),
		zap.String("mode", string(cfg.Mode)),
		zap.String("file_storage_path", cfg.FileStoragePath),
		zap.Bool("enable_https", cfg.EnableHTTPS),
		zap.Strings("cors_origins", cfg.CORSOrigins),
	)
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate проверяет корректность конфигурации
func (cfg *Config) Validate() error {
	if cfg.ServerAddress == "" {
		return errors.New("адрес сервера не может быть пустым")
	}
	if cfg.BaseURL == "" {
		return errors.New("базовый URL не может быть пустым")
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET не задан")
	}
	if cfg.TokenTTL <= 0 {
		return fmt.Errorf("некорректный TOKEN_TTL: %s", cfg.TokenTTL)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("некорректный SHUTDOWN_TIMEOUT: %s", cfg.ShutdownTimeout)
	}
	if cfg.Mode == ModeMongo && cfg.MongoDatabase == "" {
		return errors.New("имя базы MongoDB не может быть пустым")
	}
	if cfg.EnableHTTPS && (cfg.TLSCertPath == "" || cfg.TLSKeyPath == "") {
		return errors.New("для HTTPS нужны пути к сертификату и ключу")
	}
	return nil
}
