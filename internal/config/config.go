package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultSecretKey = "insecure-change-me-bulletcalc-secret-key"
	defaultPageSize  = 20
	maxPageSize      = 1000

	// ConfigPathEnv names the environment variable that points at the YAML settings file.
	ConfigPathEnv = "BULLETCALC_CONFIG"
	// BaseDirEnv overrides the directory relative paths are resolved against.
	BaseDirEnv = "BULLETCALC_BASE_DIR"
)

// Middleware names in the order the API server installs them.
const (
	MiddlewareCORS         = "cors"
	MiddlewareSecurity     = "security"
	MiddlewareSessions     = "sessions"
	MiddlewareCommon       = "common"
	MiddlewareCSRF         = "csrf"
	MiddlewareAuth         = "auth"
	MiddlewareClickjacking = "clickjacking"
)

// Config represents the application settings
type Config struct {
	BaseDir      string   `yaml:"base_dir"`
	SecretKey    string   `yaml:"secret_key"`
	Debug        bool     `yaml:"debug"`
	AllowedHosts []string `yaml:"allowed_hosts"`
	LogLevel     string   `yaml:"log_level"`
	LogFormat    string   `yaml:"log_format"`

	Server        ServerConfig   `yaml:"server"`
	SQLDatabase   DatabaseConfig `yaml:"sql_database"`   // SQLite for users and sessions
	NoSQLDatabase MongoConfig    `yaml:"nosql_database"` // MongoDB for calculations and profiles

	InstalledApps []string `yaml:"installed_apps"`
	Middleware    []string `yaml:"middleware"`

	REST      RESTConfig      `yaml:"rest"`
	CORS      CORSConfig      `yaml:"cors"`
	Session   SessionConfig   `yaml:"session"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Static    StaticConfig    `yaml:"static"`
	Media     MediaConfig     `yaml:"media"`
	Tools     ToolsConfig     `yaml:"tools"`

	PasswordMinLength int    `yaml:"password_min_length"`
	LanguageCode      string `yaml:"language_code"`
	TimeZone          string `yaml:"time_zone"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig represents relational database configuration
type DatabaseConfig struct {
	Provider string            `yaml:"provider"` // sqlite
	URI      string            `yaml:"uri"`
	Options  map[string]string `yaml:"options,omitempty"`
}

// MongoConfig represents document store configuration
type MongoConfig struct {
	Database   string        `yaml:"database"`
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	AuthSource string        `yaml:"auth_source"`
	Timeout    time.Duration `yaml:"timeout"`
}

// RESTConfig mirrors the REST framework defaults the API applies
type RESTConfig struct {
	Permission string `yaml:"permission"` // AllowAny
	Renderer   string `yaml:"renderer"`   // JSON
	Pagination string `yaml:"pagination"` // PageNumber
	PageSize   int    `yaml:"page_size"`
}

// CORSConfig controls cross-origin policy
type CORSConfig struct {
	AllowAllOrigins  bool     `yaml:"allow_all_origins"`
	AllowedOrigins   []string `yaml:"allowed_origins,omitempty"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// Validate checks allowed_origins. Each entry must be a scheme and host such as
// https://example.com; use allow_all_origins instead of "*".
func (c CORSConfig) Validate() error {
	var errs []error
	for _, origin := range c.AllowedOrigins {
		switch {
		case origin == "*" || strings.Contains(origin, "*"):
			errs = append(errs, fmt.Errorf("cors origin %q: wildcards are not supported, set allow_all_origins", origin))
		case !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://"):
			errs = append(errs, fmt.Errorf("cors origin %q must start with http:// or https://", origin))
		case strings.TrimRight(strings.SplitN(origin, "://", 2)[1], "/") == "":
			errs = append(errs, fmt.Errorf("cors origin %q has no host", origin))
		}
	}
	return errors.Join(errs...)
}

// SessionConfig controls the session cookie
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	MaxAge     time.Duration `yaml:"max_age"`
	Secure     bool          `yaml:"secure"`
}

// RateLimitConfig controls the global token bucket
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// StaticConfig describes collected and source static directories
type StaticConfig struct {
	URL  string   `yaml:"url"`
	Root string   `yaml:"root"`
	Dirs []string `yaml:"dirs"`
}

// MediaConfig describes user-uploaded files
type MediaConfig struct {
	URL  string `yaml:"url"`
	Root string `yaml:"root"`
}

// ToolsConfig holds paths to external executables
type ToolsConfig struct {
	PythonPath string `yaml:"python_path"`
	MongodPath string `yaml:"mongod_path"`
}

// DefaultInstalledApps returns the components registered with the server
func DefaultInstalledApps() []string {
	return []string{"auth", "sessions", "staticfiles", "rest", "cors", "mongodb", "calculator"}
}

// DefaultMiddleware returns the middleware chain in installation order
func DefaultMiddleware() []string {
	return []string{
		MiddlewareCORS,
		MiddlewareSecurity,
		MiddlewareSessions,
		MiddlewareCommon,
		MiddlewareCSRF,
		MiddlewareAuth,
		MiddlewareClickjacking,
	}
}

// DefaultConfig returns a default configuration rooted at baseDir
func DefaultConfig(baseDir string) *Config {
	if baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			baseDir = wd
		} else {
			baseDir = "."
		}
	}

	return &Config{
		BaseDir:      baseDir,
		SecretKey:    defaultSecretKey,
		Debug:        true,
		AllowedHosts: []string{"localhost", "127.0.0.1", "*"},
		LogLevel:     "INFO",
		LogFormat:    "console",
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		SQLDatabase: DatabaseConfig{
			Provider: "sqlite",
			URI:      "db.sqlite3",
		},
		NoSQLDatabase: MongoConfig{
			Database:   "bullet_calculator_db",
			Host:       "localhost",
			Port:       27017,
			AuthSource: "admin",
			Timeout:    5 * time.Second,
		},
		InstalledApps: DefaultInstalledApps(),
		Middleware:    DefaultMiddleware(),
		REST: RESTConfig{
			Permission: "AllowAny",
			Renderer:   "JSON",
			Pagination: "PageNumber",
			PageSize:   defaultPageSize,
		},
		CORS: CORSConfig{
			AllowAllOrigins:  true,
			AllowCredentials: true,
		},
		Session: SessionConfig{
			CookieName: "sessionid",
			MaxAge:     14 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RPS:   25,
			Burst: 50,
		},
		Static: StaticConfig{
			URL:  "/static/",
			Root: "staticfiles",
			Dirs: []string{"static"},
		},
		Media: MediaConfig{
			URL:  "/media/",
			Root: "media",
		},
		Tools: ToolsConfig{
			PythonPath: "D:/Python/python.exe",
			MongodPath: "D:/MongoDB/bin/mongod.exe",
		},
		PasswordMinLength: 8,
		LanguageCode:      "en-us",
		TimeZone:          "UTC",
	}
}

// Load resolves settings from defaults, an optional YAML file, a .env file in the
// base directory and finally the process environment, in increasing precedence.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig(strings.TrimSpace(os.Getenv(BaseDirEnv)))

	if path != "" && Exists(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadDotEnv(cfg.BaseDir); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.resolvePaths()
	return cfg, nil
}

// loadDotEnv fills unset environment variables from <baseDir>/.env
func loadDotEnv(baseDir string) error {
	envFile := filepath.Join(baseDir, ".env")
	if !Exists(envFile) {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := env("SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := env("DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG %q: %w", v, err)
		}
		cfg.Debug = b
	}
	if v := env("ALLOWED_HOSTS"); v != "" {
		cfg.AllowedHosts = splitList(v)
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := env("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := env("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := env("SQLITE_PATH"); v != "" {
		cfg.SQLDatabase.URI = v
	}

	if v := env("MONGO_DB_NAME"); v != "" {
		cfg.NoSQLDatabase.Database = v
	}
	if v := env("MONGO_HOST"); v != "" {
		cfg.NoSQLDatabase.Host = v
	}
	if v := env("MONGO_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MONGO_PORT %q: %w", v, err)
		}
		cfg.NoSQLDatabase.Port = port
	}
	if v := env("MONGO_USERNAME"); v != "" {
		cfg.NoSQLDatabase.Username = v
	}
	if v := env("MONGO_PASSWORD"); v != "" {
		cfg.NoSQLDatabase.Password = v
	}
	if v := env("MONGO_AUTH_SOURCE"); v != "" {
		cfg.NoSQLDatabase.AuthSource = v
	}

	if v := env("PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PAGE_SIZE %q: %w", v, err)
		}
		cfg.REST.PageSize = size
	}
	if v := env("RATE_LIMIT_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil && rps >= 0 {
			cfg.RateLimit.RPS = rps
		}
	}
	if v := env("RATE_LIMIT_BURST"); v != "" {
		if burst, err := strconv.Atoi(v); err == nil && burst >= 0 {
			cfg.RateLimit.Burst = burst
		}
	}

	if v := env("PYTHON_PATH"); v != "" {
		cfg.Tools.PythonPath = v
	}
	if v := env("MONGODB_PATH"); v != "" {
		cfg.Tools.MongodPath = v
	}

	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// resolvePaths anchors relative filesystem settings at BaseDir
func (c *Config) resolvePaths() {
	c.SQLDatabase.URI = c.Path(c.SQLDatabase.URI)
	c.Static.Root = c.Path(c.Static.Root)
	for i, dir := range c.Static.Dirs {
		c.Static.Dirs[i] = c.Path(dir)
	}
	c.Media.Root = c.Path(c.Media.Root)
}

// Path returns p anchored at BaseDir unless it is already absolute or home-relative
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "~") {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Validate checks the settings are structurally usable by the server
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.SecretKey) == "" {
		errs = append(errs, errors.New("secret_key must not be empty"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port out of range: %d", c.Server.Port))
	}
	if c.NoSQLDatabase.Port < 1 || c.NoSQLDatabase.Port > 65535 {
		errs = append(errs, fmt.Errorf("mongo port out of range: %d", c.NoSQLDatabase.Port))
	}
	if c.NoSQLDatabase.Database == "" {
		errs = append(errs, errors.New("mongo database name must not be empty"))
	}
	if c.SQLDatabase.Provider != "sqlite" {
		errs = append(errs, fmt.Errorf("unsupported sql provider: %s", c.SQLDatabase.Provider))
	}
	if c.REST.PageSize < 1 || c.REST.PageSize > maxPageSize {
		errs = append(errs, fmt.Errorf("page size must be between 1 and %d, got %d", maxPageSize, c.REST.PageSize))
	}
	if len(c.AllowedHosts) == 0 {
		errs = append(errs, errors.New("allowed_hosts must not be empty"))
	}
	if c.PasswordMinLength < 1 {
		errs = append(errs, errors.New("password_min_length must be positive"))
	}
	if err := c.CORS.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := validateMiddleware(c.Middleware); err != nil {
		errs = append(errs, err)
	}
	if !strings.HasPrefix(c.Static.URL, "/") || !strings.HasSuffix(c.Static.URL, "/") {
		errs = append(errs, fmt.Errorf("static url must start and end with '/': %q", c.Static.URL))
	}
	if !strings.HasPrefix(c.Media.URL, "/") || !strings.HasSuffix(c.Media.URL, "/") {
		errs = append(errs, fmt.Errorf("media url must start and end with '/': %q", c.Media.URL))
	}
	if c.Static.URL == c.Media.URL {
		errs = append(errs, errors.New("static and media urls must differ"))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("invalid time zone %q", c.TimeZone))
	}

	return errors.Join(errs...)
}

// validateMiddleware requires every known middleware exactly once, with cors
// first and clickjacking last. Sessions must precede csrf and auth.
func validateMiddleware(chain []string) error {
	known := make(map[string]int, len(chain))
	for i, name := range chain {
		if _, dup := known[name]; dup {
			return fmt.Errorf("middleware %q listed twice", name)
		}
		known[name] = i
	}
	for _, name := range DefaultMiddleware() {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("middleware %q missing", name)
		}
	}
	if len(chain) != len(DefaultMiddleware()) {
		return fmt.Errorf("unknown middleware in chain: %v", chain)
	}
	if chain[0] != MiddlewareCORS {
		return errors.New("cors middleware must be first")
	}
	if chain[len(chain)-1] != MiddlewareClickjacking {
		return errors.New("clickjacking middleware must be last")
	}
	if known[MiddlewareSessions] > known[MiddlewareCSRF] || known[MiddlewareSessions] > known[MiddlewareAuth] {
		return errors.New("sessions middleware must precede csrf and auth")
	}
	return nil
}

// MongoURI returns the connection URI without credentials
func (c *Config) MongoURI() string {
	return fmt.Sprintf("mongodb://%s:%d", c.NoSQLDatabase.Host, c.NoSQLDatabase.Port)
}

// Address returns the HTTP listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// PathStatus reports whether a configured path exists
type PathStatus struct {
	Name   string
	Path   string
	Exists bool
}

// CheckPaths reports existence of every filesystem path the settings reference
func (c *Config) CheckPaths() []PathStatus {
	statuses := []PathStatus{
		{Name: "python_path", Path: c.Tools.PythonPath},
		{Name: "mongod_path", Path: c.Tools.MongodPath},
		{Name: "static_root", Path: c.Static.Root},
		{Name: "media_root", Path: c.Media.Root},
	}
	for i, dir := range c.Static.Dirs {
		statuses = append(statuses, PathStatus{Name: fmt.Sprintf("static_dirs[%d]", i), Path: dir})
	}
	for i := range statuses {
		statuses[i].Exists = Exists(statuses[i].Path)
	}
	return statuses
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the config file path from the environment or the default location
func GetConfigPath() string {
	if p := env(ConfigPathEnv); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bulletcalc/config.yaml"
	}
	return filepath.Join(home, ".bulletcalc", "config.yaml")
}

// Exists checks if a file or directory exists
func Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
