package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		BodyLimit    int           `yaml:"body_limit"`
		Templates    string        `yaml:"templates"`
		Static       string        `yaml:"static"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Logging struct {
		Dir    string `yaml:"dir"`
		AppLog string `yaml:"app_log"`
		Level  string `yaml:"level"`
	} `yaml:"logging"`

	Engine struct {
		Command     string        `yaml:"command"`
		Args        []string      `yaml:"args"`
		WorkDir     string        `yaml:"work_dir"`
		InitTimeout time.Duration `yaml:"init_timeout"`
		CallTimeout time.Duration `yaml:"call_timeout"`
	} `yaml:"engine"`

	Collector struct {
		Extensions  []string `yaml:"extensions"`
		ExcludeDirs []string `yaml:"exclude_dirs"`
		Concurrency int      `yaml:"concurrency"`
	} `yaml:"collector"`

	Watcher struct {
		Enabled  bool          `yaml:"enabled"`
		Debounce time.Duration `yaml:"debounce"`
	} `yaml:"watcher"`

	Package struct {
		OpenOnStart string `yaml:"open_on_start"`
	} `yaml:"package"`

	History struct {
		Limit int `yaml:"limit"`
	} `yaml:"history"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and fills in defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.BodyLimit == 0 {
		cfg.Server.BodyLimit = 64 * 1024 * 1024
	}
	if cfg.Server.Templates == "" {
		cfg.Server.Templates = "./frontend/templates"
	}
	if cfg.Server.Static == "" {
		cfg.Server.Static = "./frontend/static"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/reframe-ide.db"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "./data/logs"
	}
	if cfg.Logging.AppLog == "" {
		cfg.Logging.AppLog = cfg.Logging.Dir + "/app.log"
	}
	if cfg.Engine.InitTimeout == 0 {
		cfg.Engine.InitTimeout = 30 * time.Second
	}
	if cfg.Engine.CallTimeout == 0 {
		cfg.Engine.CallTimeout = 60 * time.Second
	}
	if len(cfg.Collector.Extensions) == 0 {
		cfg.Collector.Extensions = []string{".json"}
	}
	if cfg.Collector.ExcludeDirs == nil {
		cfg.Collector.ExcludeDirs = []string{"node_modules"}
	}
	if cfg.Collector.Concurrency == 0 {
		cfg.Collector.Concurrency = 8
	}
	if cfg.Watcher.Debounce == 0 {
		cfg.Watcher.Debounce = 500 * time.Millisecond
	}
	if cfg.History.Limit == 0 {
		cfg.History.Limit = 20
	}
}

// LoadFromEnv loads configuration with environment variable overrides
func LoadFromEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	// Override with environment variables if set
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logDir := os.Getenv("LOG_DIR"); logDir != "" {
		cfg.Logging.Dir = logDir
		cfg.Logging.AppLog = logDir + "/app.log"
	}
	if fields := strings.Fields(os.Getenv("REFRAME_ENGINE")); len(fields) > 0 {
		cfg.Engine.Command = fields[0]
		cfg.Engine.Args = fields[1:]
	}
	if dir := os.Getenv("PACKAGE_DIR"); dir != "" {
		cfg.Package.OpenOnStart = dir
	}
	if port := os.Getenv("PORT"); port != "" {
		if val, err := strconv.Atoi(port); err == nil && val > 0 {
			cfg.Server.Port = val
		}
	}
}
