// config.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Analyzer selection modes. The generator mode fabricates plausible data
// through the completion API; the archive mode extracts the uploaded export
// and computes the real follow-back gap. Generator is the default.
const (
	AnalyzerModeGenerator = "generator"
	AnalyzerModeArchive   = "archive"
)

// ServerConfig holds all server configuration
type ServerConfig struct {
	Server    ServerSettings    `json:"server"`
	Database  DatabaseSettings  `json:"database"`
	Security  SecuritySettings  `json:"security"`
	Upload    UploadSettings    `json:"upload"`
	Analyzer  AnalyzerSettings  `json:"analyzer"`
	Generator GeneratorSettings `json:"generator"`
	Payment   PaymentSettings   `json:"payment"`
}

// ServerSettings contains server-specific configuration
type ServerSettings struct {
	Interface    string `json:"interface"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// DatabaseSettings contains database configuration
type DatabaseSettings struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// SecuritySettings contains security-related configuration
type SecuritySettings struct {
	SecretKey         string `json:"-"` // Never serialize secret key
	SessionMaxAge     int    `json:"session_max_age"`
	RateLimitRequests int    `json:"rate_limit_requests"`
	RateLimitWindow   int    `json:"rate_limit_window"`
	EnableHTTPS       bool   `json:"enable_https"`
	CertFile          string `json:"cert_file"`
	KeyFile           string `json:"key_file"`
}

// UploadSettings contains the ceilings and routing for the two upload flows.
// The standard flow routes oversized files to the contact channel; the test
// flow raises the ceiling and treats oversized files as a plain error.
type UploadSettings struct {
	MaxFileSizeMB     int64  `json:"max_file_size_mb"`
	TestMaxFileSizeMB int64  `json:"test_max_file_size_mb"`
	ContactURL        string `json:"contact_url"`
}

// AnalyzerSettings selects the follow-graph analyzer implementation.
type AnalyzerSettings struct {
	Mode string `json:"mode"` // "generator" or "archive"
}

// GeneratorSettings contains the completion API configuration used by the
// generator analyzer mode.
type GeneratorSettings struct {
	BaseURL     string  `json:"base_url"`
	APIKey      string  `json:"-"` // Never serialize the API key
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

// PaymentSettings contains the simulated payment gateway configuration.
type PaymentSettings struct {
	PriceCents        int64 `json:"price_cents"`
	ProcessingDelayMS int   `json:"processing_delay_ms"`
}

// CeilingBytes returns the standard flow upload ceiling in bytes.
func (u UploadSettings) CeilingBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// TestCeilingBytes returns the test flow upload ceiling in bytes.
func (u UploadSettings) TestCeilingBytes() int64 {
	return u.TestMaxFileSizeMB * 1024 * 1024
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*ServerConfig, error) {
	// Load .env before reading environment overrides; missing files are fine
	_ = godotenv.Load(".env")

	// Default configuration
	config := &ServerConfig{
		Server: ServerSettings{
			Interface:    ":5000",
			Port:         5000,
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
		},
		Database: DatabaseSettings{
			Type: "sqlite",
			Path: "analyses.db",
		},
		Security: SecuritySettings{
			SessionMaxAge:     86400, // 24 hours
			RateLimitRequests: 100,
			RateLimitWindow:   60, // 1 minute
			EnableHTTPS:       false,
		},
		Upload: UploadSettings{
			MaxFileSizeMB:     100,
			TestMaxFileSizeMB: 150,
			ContactURL:        "https://wa.me/5511973964702",
		},
		Analyzer: AnalyzerSettings{
			Mode: AnalyzerModeGenerator,
		},
		Generator: GeneratorSettings{
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			Timeout:     60,
		},
		Payment: PaymentSettings{
			PriceCents:        2000, // R$ 20,00
			ProcessingDelayMS: 3000,
		},
	}

	// Load from file if it exists
	if configPath != "" {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %v", err)
		}
	}

	// Override with environment variables
	loadConfigFromEnv(config)

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	return config, nil
}

// loadConfigFromFile loads configuration from JSON file
func loadConfigFromFile(config *ServerConfig, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	return decoder.Decode(config)
}

// loadConfigFromEnv loads configuration from environment variables
func loadConfigFromEnv(config *ServerConfig) {
	// Security settings (most important)
	if secretKey := os.Getenv("SECRET_KEY"); secretKey != "" {
		config.Security.SecretKey = secretKey
	}

	// Server settings
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
			config.Server.Interface = fmt.Sprintf(":%d", p)
		}
	}
	if iface := os.Getenv("SERVER_INTERFACE"); iface != "" {
		config.Server.Interface = iface
	}

	// Database settings
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		config.Database.Path = dbPath
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			config.Database.Port = p
		}
	}
	if dbUser := os.Getenv("DB_USERNAME"); dbUser != "" {
		config.Database.Username = dbUser
	}
	if dbPass := os.Getenv("DB_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DB_DATABASE"); dbName != "" {
		config.Database.Database = dbName
	}

	// Upload settings
	if maxMB := os.Getenv("UPLOAD_MAX_MB"); maxMB != "" {
		if n, err := strconv.ParseInt(maxMB, 10, 64); err == nil {
			config.Upload.MaxFileSizeMB = n
		}
	}
	if testMaxMB := os.Getenv("UPLOAD_TEST_MAX_MB"); testMaxMB != "" {
		if n, err := strconv.ParseInt(testMaxMB, 10, 64); err == nil {
			config.Upload.TestMaxFileSizeMB = n
		}
	}
	if contactURL := os.Getenv("CONTACT_URL"); contactURL != "" {
		config.Upload.ContactURL = contactURL
	}

	// Analyzer settings
	if mode := os.Getenv("ANALYZER_MODE"); mode != "" {
		config.Analyzer.Mode = strings.ToLower(mode)
	}

	// Generator settings
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Generator.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.Generator.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.Generator.Model = model
	}

	// Payment settings
	if delayMS := os.Getenv("PAYMENT_DELAY_MS"); delayMS != "" {
		if n, err := strconv.Atoi(delayMS); err == nil {
			config.Payment.ProcessingDelayMS = n
		}
	}

	// Security settings
	if httpsEnabled := os.Getenv("ENABLE_HTTPS"); httpsEnabled != "" {
		config.Security.EnableHTTPS = strings.ToLower(httpsEnabled) == "true"
	}
	if certFile := os.Getenv("CERT_FILE"); certFile != "" {
		config.Security.CertFile = certFile
	}
	if keyFile := os.Getenv("KEY_FILE"); keyFile != "" {
		config.Security.KeyFile = keyFile
	}
}

// validateConfig validates the configuration
func validateConfig(config *ServerConfig) error {
	if config.Security.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}

	if len(config.Security.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters long")
	}

	if config.Security.EnableHTTPS {
		if config.Security.CertFile == "" || config.Security.KeyFile == "" {
			return fmt.Errorf("CERT_FILE and KEY_FILE are required when HTTPS is enabled")
		}
	}

	switch config.Analyzer.Mode {
	case AnalyzerModeGenerator:
		if config.Generator.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required in generator mode")
		}
	case AnalyzerModeArchive:
		// No external credentials needed
	default:
		return fmt.Errorf("analyzer mode must be %q or %q, got %q",
			AnalyzerModeGenerator, AnalyzerModeArchive, config.Analyzer.Mode)
	}

	if config.Upload.MaxFileSizeMB <= 0 || config.Upload.TestMaxFileSizeMB <= 0 {
		return fmt.Errorf("upload ceilings must be positive")
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *ServerConfig) GetDatabaseDSN() string {
	switch strings.ToLower(c.Database.Type) {
	case "sqlite":
		return c.Database.Path
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Database.Host, c.Database.Port, c.Database.Username, c.Database.Password, c.Database.Database)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
	default:
		return c.Database.Path
	}
}
