package config

import (
	"os"
	"time"

	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/utils"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var Config = Default()

const (
	// Priority
	FromCFG = 0
	FromENV = 1
	FromCLI = 2
)

type ProfiledConfig struct {
	HttpPort         string        `yaml:"http_port"`
	GrpcPort         string        `yaml:"grpc_port"`
	LogLevel         string        `yaml:"log_level"`
	URL              string        `yaml:"url"`
	Format           string        `yaml:"format"`
	MetricsNamespace string        `yaml:"metrics_namespace"`
	WatchInterval    time.Duration `yaml:"watch_interval"`
	// ReportCacheTTL > 0 serves rendered table/text reports from a cache, so
	// they may miss samples recorded less than one TTL ago. JSON is never cached.
	ReportCacheTTL   time.Duration `yaml:"report_cache_ttl"`
	ProfileRequests  bool          `yaml:"profile_requests"`
	InternalKey      string        `yaml:"internal_key"`
}

// Default returns the configuration used when no file is given,
// with environment overrides applied.
func Default() *ProfiledConfig {
	return &ProfiledConfig{
		HttpPort:         utils.HttpPort(),
		GrpcPort:         utils.GrpcPort(),
		LogLevel:         utils.LogLevel(),
		Format:           "table",
		MetricsNamespace: profiler.DefaultNamespace,
		WatchInterval:    utils.WatchInterval(),
		ReportCacheTTL:   utils.ReportCacheTTL(),
		InternalKey:      utils.InternalKey(),
	}
}

func InitConfigField(field *string, cliValue, envVarName, defaultValue string) int {
	// 1. CLI value
	if cliValue != "" {
		*field = cliValue
		return FromCLI
	}
	// 2. Env value
	envValue := os.Getenv(envVarName)
	if envValue != "" {
		*field = envValue
		return FromENV
	}
	// 3. Default value if not set
	if *field == "" {
		*field = defaultValue
	}
	return FromCFG
}

// InitConfig loads Config from the given path.
func InitConfig(filepath string) error {
	data, err := os.ReadFile(filepath)

	if err != nil {
		return err
	}

	if err := Load(data); err != nil {
		return err
	}

	logrus.Debugf("Config loaded from %v.", filepath)
	return nil
}

// Load reads data over the defaults and assigns the result as the global Config.
func Load(data []byte) error {
	cfg, err := Parse(data)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

func Parse(data []byte) (*ProfiledConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.MetricsNamespace == "" {
		cfg.MetricsNamespace = profiler.DefaultNamespace
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = utils.WatchInterval()
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = utils.DefaultWatch
	}
	if cfg.ReportCacheTTL < 0 {
		cfg.ReportCacheTTL = 0
	}
	return cfg, nil
}
