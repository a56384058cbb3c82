package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Specification struct {
	Root       string `yaml:"root" split_words:"true"`
	MaxResults int    `yaml:"maxResults" envconfig:"MAX_RESULTS"`
	Threads    int    `yaml:"threads"`
	LogLevel   string `yaml:"logLevel" split_words:"true"`
	Output     string `yaml:"output"`

	flags *pflag.FlagSet `ignored:"true"`
}

const envPrefix = "FUZZGREP"

func (s *Specification) Usage() {
	fmt.Fprint(os.Stderr, s.flags.FlagUsages())
}

// Load => defaults < YAML < env < flags.
// configPath may be ""; if so we auto-discover.
func Load(configPath string, fs *pflag.FlagSet) (Specification, error) {
	var cfg Specification

	// set defaults (lowest precedence)
	setDefaults(&cfg)
	bindFlags(fs, &cfg)

	// config file
	path := configPath
	if path == "" {
		if v := os.Getenv(envPrefix + "_CONFIG"); v != "" {
			path = v
		} else {
			for _, cand := range []string{
				"config/fuzzgrep.yaml",
				"config/config.yaml",
				"./fuzzgrep.yaml",
				"./config.yaml",
			} {
				if fileExists(cand) {
					path = cand
					break
				}
			}
		}
	}

	if path != "" {
		if !fileExists(path) {
			return Specification{}, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadYAML(path, &cfg); err != nil {
			return Specification{}, fmt.Errorf("load yaml %s: %w", path, err)
		}
	}

	// env overrides config file
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Specification{}, fmt.Errorf("env override: %w", err)
	}

	// flags override everything
	if err := fs.Parse(os.Args[1:]); err != nil {
		return Specification{}, err
	}
	applyChangedFlags(fs, &cfg)

	// Minimal sanity
	if strings.TrimSpace(cfg.Root) == "" {
		cfg.Root = "."
	}
	if cfg.MaxResults < 0 {
		return Specification{}, fmt.Errorf("max-results must be >= 0, got %d", cfg.MaxResults)
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.Output {
	case "text", "json":
	default:
		return Specification{}, fmt.Errorf("output must be text or json, got %q", cfg.Output)
	}
	return cfg, nil
}

// ---------- helpers ----------

func loadYAML(path string, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func bindFlags(fs *pflag.FlagSet, c *Specification) {
	fs.String("config", "", "Path to config file")

	// If --config is provided on the command line, capture it now so
	// config discovery (which runs before flags.Parse) can use it.
	for i, a := range os.Args {
		if a == "--config" {
			if i+1 < len(os.Args) && !strings.HasPrefix(os.Args[i+1], "-") {
				_ = os.Setenv(envPrefix+"_CONFIG", os.Args[i+1])
			}
		} else if strings.HasPrefix(a, "--config=") {
			parts := strings.SplitN(a, "=", 2)
			if len(parts) == 2 {
				_ = os.Setenv(envPrefix+"_CONFIG", parts[1])
			}
		}
	}

	fs.String("root", c.Root, "Directory to search")
	fs.Int("max-results", c.MaxResults, "Maximum results to return")
	fs.Int("threads", c.Threads, "Worker threads for walking and scoring")
	fs.String("log-level", c.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("output", c.Output, "Output format (text|json)")

	// Used later for usage/help
	// create a shallow copy of fs (so Usage can be called safely without mutating caller)
	copied := pflag.NewFlagSet("temp", pflag.ContinueOnError)
	*copied = *fs
	c.flags = copied
}

func applyChangedFlags(fs *pflag.FlagSet, c *Specification) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			*dst = v
		}
	}

	// (We ignore --config here; it's for discovery.)
	setStr("root", &c.Root)
	setInt("max-results", &c.MaxResults)
	setInt("threads", &c.Threads)
	setStr("log-level", &c.LogLevel)
	setStr("output", &c.Output)
}

func setDefaults(c *Specification) {
	c.Root = "."
	c.MaxResults = 50
	c.Threads = runtime.NumCPU()
	c.LogLevel = "info"
	c.Output = "text"
}
