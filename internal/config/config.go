package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/server.yaml"

	envStoragePath = "SYNCHROSTORE_STORAGE_PATH"
	envAddress     = "SYNCHROSTORE_ADDRESS"
)

type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

type ServerConfig struct {
	Address string `yaml:"address" json:"address"`
}

type StorageConfig struct {
	// Path is the directory holding persistent_data.json.
	Path string `yaml:"path" json:"path"`
}

type LogConfig struct {
	Debug bool   `yaml:"debug" json:"debug"`
	File  string `yaml:"file" json:"file"`
}

func Default() *Config {
	return &Config{
		Server:  ServerConfig{Address: "127.0.0.1:8001"},
		Storage: StorageConfig{Path: "storage/data"},
		Log:     LogConfig{Debug: false, File: "logs/synchrostore.log"},
	}
}

// LoadConfig reads flags from the command line, then the YAML file they
// point at, then environment overrides. Flags win over both.
func LoadConfig() (*Config, error) {
	return LoadConfigFromArgs(os.Args[1:])
}

func LoadConfigFromArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("synchrostore", flag.ContinueOnError)
	configPath := fs.String("config", DefaultConfigPath, "Path to the server config file")
	debug := fs.Bool("debug", false, "enable debug mode with detailed logging")
	storagePath := fs.String("storage", "", "Directory for the persistent data file")
	address := fs.String("address", "", "Address for the HTTP API to listen on")
	fs.StringVar(configPath, "c", DefaultConfigPath, "Path to the server config file (shorthand)")
	fs.BoolVar(debug, "d", false, "enable debug mode with detailed logging (shorthand)")
	fs.StringVar(storagePath, "s", "", "Directory for the persistent data file (shorthand)")
	fs.StringVar(address, "a", "", "Address for the HTTP API to listen on (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" || f.Name == "c" {
			explicit = true
		}
	})

	cfg, err := LoadConfigFromPath(*configPath)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}

	applyEnv(cfg)

	if *debug {
		cfg.Log.Debug = true
	}
	if *storagePath != "" {
		cfg.Storage.Path = *storagePath
	}
	if *address != "" {
		cfg.Server.Address = *address
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromPath reads a YAML config. Fields missing from the file keep
// their defaults.
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envStoragePath); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv(envAddress); v != "" {
		cfg.Server.Address = v
	}
}

func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return errors.New("storage path cannot be empty")
	}

	if c.Server.Address == "" {
		return errors.New("server address cannot be empty")
	}
	_, port, err := net.SplitHostPort(c.Server.Address)
	if err != nil {
		return fmt.Errorf("invalid server address %q: %w", c.Server.Address, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 1 || portNum > 65535 {
		return fmt.Errorf("invalid port %q, must be between 1 and 65535", port)
	}

	if c.Log.File == "" {
		return errors.New("log file cannot be empty")
	}
	return nil
}
