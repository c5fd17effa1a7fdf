package config

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/rlsnotes"
	ConfigFileName    = "rlsnotes.yml"
	DefaultEnvFile    = ".env"
	DefaultAppRole    = "rlsnotes_app"
)

// ValidStoreBackends lists the store implementations the server can run on
var ValidStoreBackends = []string{"gorm", "pgx"}

// ValidLogLevels lists the accepted log_level values
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Config holds all rlsnotes configuration settings
type Config struct {
	// BindAddress is the interface the HTTP server listens on
	BindAddress string `yaml:"bind_address" json:"bind_address"`

	// Port is the HTTP listen port
	Port int `yaml:"port" json:"port"`

	// DatabaseURL is the PostgreSQL connection string
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// StoreBackend selects the store implementation (gorm or pgx)
	StoreBackend string `yaml:"store_backend" json:"store_backend"`

	// BindingKey is the transaction-scoped setting read by the row-level policies
	BindingKey string `yaml:"binding_key" json:"binding_key"`

	// AppRole is the role assumed with SET LOCAL ROLE inside every scoped transaction.
	// An explicit empty value disables the role switch.
	AppRole *string `yaml:"app_role" json:"app_role"`

	// MaxOpenConns caps the connection pool
	MaxOpenConns int `yaml:"max_open_conns" json:"max_open_conns"`

	// MaxIdleConns is the number of idle pooled connections kept around
	MaxIdleConns int `yaml:"max_idle_conns" json:"max_idle_conns"`

	// ConnMaxLifetime is the maximum lifetime of a pooled connection in seconds
	ConnMaxLifetime int `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`

	// RequestTimeout bounds a single scoped transaction in seconds
	RequestTimeout int `yaml:"request_timeout" json:"request_timeout"`

	// ShutdownTimeout is the graceful shutdown budget in seconds
	ShutdownTimeout int `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// TokenSecret is the HMAC key for bearer tokens
	TokenSecret string `yaml:"token_secret" json:"-"`

	// TokenIssuer is the expected iss claim
	TokenIssuer string `yaml:"token_issuer" json:"token_issuer"`

	// TokenTTL is the lifetime of issued tokens in seconds
	TokenTTL int `yaml:"token_ttl" json:"token_ttl"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" json:"log_level"`

	// AuditEnabled toggles the RFC5424 audit trail
	AuditEnabled *bool `yaml:"audit_enabled" json:"audit_enabled"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string

	// envFilePath is the path to the dotenv file
	envFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return cfg, nil
}

func newDefault() *Config {
	auditEnabled := true
	appRole := DefaultAppRole
	return &Config{
		BindAddress:     "0.0.0.0",
		Port:            8000,
		StoreBackend:    "gorm",
		BindingKey:      "app.current_user_id",
		AppRole:         &appRole,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 300,
		RequestTimeout:  5,
		ShutdownTimeout: 10,
		TokenIssuer:     "rlsnotes",
		TokenTTL:        3600,
		LogLevel:        "info",
		AuditEnabled:    &auditEnabled,
		sources:         make(map[string]string),
	}
}

// Load loads configuration from the config file, the dotenv file and the process environment.
// Later sources take precedence.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("RLSNOTES_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.envFilePath = os.Getenv("RLSNOTES_ENV_FILE")
	if config.envFilePath == "" {
		config.envFilePath = DefaultEnvFile
	}
	envFile := map[string]string{}
	if _, err := os.Stat(config.envFilePath); err == nil {
		envFile, err = godotenv.Read(config.envFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse env file %s: %w", config.envFilePath, err)
		}
	}

	config.applyEnvConfig(envLookup(envFile))

	return config, nil
}

func attributeNames() []string {
	return []string{
		"bind_address", "port", "database_url", "store_backend",
		"binding_key", "app_role", "max_open_conns", "max_idle_conns",
		"conn_max_lifetime", "request_timeout", "shutdown_timeout",
		"token_secret", "token_issuer", "token_ttl", "log_level",
		"audit_enabled",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	if file.BindAddress != "" {
		c.BindAddress = file.BindAddress
		c.sources["bind_address"] = "file"
	}
	if file.Port != 0 {
		c.Port = file.Port
		c.sources["port"] = "file"
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
		c.sources["database_url"] = "file"
	}
	if file.StoreBackend != "" {
		c.StoreBackend = file.StoreBackend
		c.sources["store_backend"] = "file"
	}
	if file.BindingKey != "" {
		c.BindingKey = file.BindingKey
		c.sources["binding_key"] = "file"
	}
	if file.AppRole != nil {
		c.AppRole = file.AppRole
		c.sources["app_role"] = "file"
	}
	if file.MaxOpenConns != 0 {
		c.MaxOpenConns = file.MaxOpenConns
		c.sources["max_open_conns"] = "file"
	}
	if file.MaxIdleConns != 0 {
		c.MaxIdleConns = file.MaxIdleConns
		c.sources["max_idle_conns"] = "file"
	}
	if file.ConnMaxLifetime != 0 {
		c.ConnMaxLifetime = file.ConnMaxLifetime
		c.sources["conn_max_lifetime"] = "file"
	}
	if file.RequestTimeout != 0 {
		c.RequestTimeout = file.RequestTimeout
		c.sources["request_timeout"] = "file"
	}
	if file.ShutdownTimeout != 0 {
		c.ShutdownTimeout = file.ShutdownTimeout
		c.sources["shutdown_timeout"] = "file"
	}
	if file.TokenSecret != "" {
		c.TokenSecret = file.TokenSecret
		c.sources["token_secret"] = "file"
	}
	if file.TokenIssuer != "" {
		c.TokenIssuer = file.TokenIssuer
		c.sources["token_issuer"] = "file"
	}
	if file.TokenTTL != 0 {
		c.TokenTTL = file.TokenTTL
		c.sources["token_ttl"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.AuditEnabled != nil {
		c.AuditEnabled = file.AuditEnabled
		c.sources["audit_enabled"] = "file"
	}
}

// lookupFunc returns a value, the name of the source it came from and whether the key was set at all
type lookupFunc func(key string) (string, string, bool)

// envLookup prefers the process environment over the dotenv file
func envLookup(envFile map[string]string) lookupFunc {
	return func(key string) (string, string, bool) {
		if val, ok := os.LookupEnv(key); ok {
			return val, "environment", true
		}
		if val, ok := envFile[key]; ok {
			return val, "env_file", true
		}
		return "", "", false
	}
}

func (c *Config) applyEnvConfig(lookup lookupFunc) {
	setString := func(attr, key string, dst *string) {
		if val, src, _ := lookup(key); val != "" {
			*dst = val
			c.sources[attr] = src
		}
	}
	setInt := func(attr, key string, dst *int) {
		if val, src, _ := lookup(key); val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				*dst = i
				c.sources[attr] = src
			}
		}
	}

	setString("bind_address", "RLSNOTES_BIND_ADDRESS", &c.BindAddress)
	setInt("port", "PORT", &c.Port)
	setInt("port", "RLSNOTES_PORT", &c.Port)
	setString("database_url", "DATABASE_URL", &c.DatabaseURL)
	setString("store_backend", "RLSNOTES_STORE_BACKEND", &c.StoreBackend)
	setString("binding_key", "RLSNOTES_BINDING_KEY", &c.BindingKey)
	// Set but empty is meaningful here
	if val, src, ok := lookup("RLSNOTES_APP_ROLE"); ok {
		c.AppRole = &val
		c.sources["app_role"] = src
	}
	setInt("max_open_conns", "RLSNOTES_MAX_OPEN_CONNS", &c.MaxOpenConns)
	setInt("max_idle_conns", "RLSNOTES_MAX_IDLE_CONNS", &c.MaxIdleConns)
	setInt("conn_max_lifetime", "RLSNOTES_CONN_MAX_LIFETIME", &c.ConnMaxLifetime)
	setInt("request_timeout", "RLSNOTES_REQUEST_TIMEOUT", &c.RequestTimeout)
	setInt("shutdown_timeout", "RLSNOTES_SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	setString("token_secret", "RLSNOTES_TOKEN_SECRET", &c.TokenSecret)
	setString("token_issuer", "RLSNOTES_TOKEN_ISSUER", &c.TokenIssuer)
	setInt("token_ttl", "RLSNOTES_TOKEN_TTL", &c.TokenTTL)
	setString("log_level", "RLSNOTES_LOG_LEVEL", &c.LogLevel)

	if val, src, _ := lookup("RLSNOTES_AUDIT_ENABLED"); val != "" {
		enabled := val == "true" || val == "1"
		c.AuditEnabled = &enabled
		c.sources["audit_enabled"] = src
	}
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Addr returns host:port for the HTTP listener
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

func (c *Config) ConnLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetime) * time.Second
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

func (c *Config) TokenLifetime() time.Duration {
	return time.Duration(c.TokenTTL) * time.Second
}

// Role returns the role assumed inside scoped transactions, or "" when the switch is off
func (c *Config) Role() string {
	if c.AppRole == nil {
		return DefaultAppRole
	}
	return *c.AppRole
}

// IsAuditEnabled reports whether audit events are emitted
func (c *Config) IsAuditEnabled() bool {
	return c.AuditEnabled == nil || *c.AuditEnabled
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if !slices.Contains(ValidStoreBackends, c.StoreBackend) {
		return fmt.Errorf("invalid store_backend: %s", c.StoreBackend)
	}
	if !slices.Contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	// Custom settings must be namespaced, e.g. app.current_user_id
	if parts := strings.Split(c.BindingKey, "."); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid binding_key: %q", c.BindingKey)
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns (%d) exceeds max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.RequestTimeout < 1 {
		return fmt.Errorf("request_timeout must be at least 1 second")
	}
	if c.TokenTTL < 1 {
		return fmt.Errorf("token_ttl must be at least 1 second")
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *Config) Attributes() []Attribute {
	secret := ""
	if c.TokenSecret != "" {
		secret = "(redacted)"
	}
	databaseURL := redactURL(c.DatabaseURL)

	return []Attribute{
		{Name: "bind_address", Value: c.BindAddress, Source: c.Source("bind_address")},
		{Name: "port", Value: strconv.Itoa(c.Port), Source: c.Source("port")},
		{Name: "database_url", Value: databaseURL, Source: c.Source("database_url")},
		{Name: "store_backend", Value: c.StoreBackend, Source: c.Source("store_backend")},
		{Name: "binding_key", Value: c.BindingKey, Source: c.Source("binding_key")},
		{Name: "app_role", Value: c.Role(), Source: c.Source("app_role")},
		{Name: "max_open_conns", Value: strconv.Itoa(c.MaxOpenConns), Source: c.Source("max_open_conns")},
		{Name: "max_idle_conns", Value: strconv.Itoa(c.MaxIdleConns), Source: c.Source("max_idle_conns")},
		{Name: "conn_max_lifetime", Value: strconv.Itoa(c.ConnMaxLifetime), Source: c.Source("conn_max_lifetime")},
		{Name: "request_timeout", Value: strconv.Itoa(c.RequestTimeout), Source: c.Source("request_timeout")},
		{Name: "shutdown_timeout", Value: strconv.Itoa(c.ShutdownTimeout), Source: c.Source("shutdown_timeout")},
		{Name: "token_secret", Value: secret, Source: c.Source("token_secret")},
		{Name: "token_issuer", Value: c.TokenIssuer, Source: c.Source("token_issuer")},
		{Name: "token_ttl", Value: strconv.Itoa(c.TokenTTL), Source: c.Source("token_ttl")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.IsAuditEnabled()), Source: c.Source("audit_enabled")},
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("Env file:    %s\n\n", c.envFilePath))
	sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-24s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"env_file":    c.envFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// redactURL hides the password component of a connection URL
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
