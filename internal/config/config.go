package config

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common"
	btcnameconfig "github.com/gaze-network/btcname-indexer/modules/btcname/config"
	"github.com/gaze-network/btcname-indexer/pkg/logger"
	"github.com/gaze-network/btcname-indexer/pkg/logger/slogx"
	"github.com/gaze-network/btcname-indexer/pkg/middleware/requestlogger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	isInit     bool
	mu         sync.Mutex
	config     = defaultConfig()
	configOnce sync.Once
)

type Config struct {
	Logger        logger.Config    `mapstructure:"logger"`
	Network       common.Network   `mapstructure:"network"`
	HTTPServer    HTTPServerConfig `mapstructure:"http_server"`
	Modules       Modules          `mapstructure:"modules"`
	EnableModules []string         `mapstructure:"enable_modules"`
	APIOnly       bool             `mapstructure:"api_only"`
}

type Modules struct {
	BTCName btcnameconfig.Config `mapstructure:"btcname"`
}

type HTTPServerConfig struct {
	Port   int                  `mapstructure:"port"`
	Logger requestlogger.Config `mapstructure:"logger"`
}

func defaultConfig() *Config {
	return &Config{
		Logger: logger.Config{
			Output: "TEXT",
		},
		Network: common.NetworkMainnet,
		HTTPServer: HTTPServerConfig{
			Port: 8080,
		},
		Modules: Modules{
			BTCName: btcnameconfig.Config{
				Datasource:      "ord-postgres",
				Database:        "postgres",
				APIHandlers:     []string{"http"},
				Modes:           []string{"btc_domain"},
				Suffixes:        []string{"btc"},
				PollingInterval: 15 * time.Second,
				NameCacheTTL:    time.Minute,
			},
		},
		EnableModules: []string{common.ModuleBTCName.String()},
	}
}

// Parse parse the configuration from environment variables and the config file.
// Config file is optional, an empty path searches "./config.yaml".
func Parse(configFile ...string) Config {
	mu.Lock()
	defer mu.Unlock()
	return *parse(configFile...)
}

func parse(configFile ...string) *Config {
	ctx := logger.WithContext(context.Background(), slog.String("package", "config"))

	if len(configFile) > 0 && configFile[0] != "" {
		viper.SetConfigFile(configFile[0])
	} else {
		viper.AddConfigPath("./")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := viper.ReadInConfig(); err != nil {
		var errNotfound viper.ConfigFileNotFoundError
		if errors.As(err, &errNotfound) {
			logger.WarnContext(ctx, "Config file not found, use default config value", slogx.Error(err))
		} else {
			logger.PanicContext(ctx, "Invalid config file", slogx.Error(err))
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		logger.PanicContext(ctx, "Something went wrong, failed to unmarshal config", slogx.Error(err))
	}

	isInit = true
	return config
}

// Load returns the loaded configuration, parsing it on first use.
func Load() Config {
	mu.Lock()
	defer mu.Unlock()
	if !isInit {
		configOnce.Do(func() {
			parse()
		})
	}
	return *config
}

// BindPFlag binds a specific key to a pflag (as used by cobra).
// Example (where serverCmd is a Cobra instance):
//
//	serverCmd.Flags().Int("port", 1138, "Port to run Application server on")
//	config.BindPFlag("port", serverCmd.Flags().Lookup("port"))
func BindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		logger.Panic("Something went wrong, failed to bind flag for config", slog.String("package", "config"), slogx.Error(err))
	}
}

// SetDefault sets the default value for this key.
// Default only used when no value is provided by the user via config or ENV.
func SetDefault(key string, value any) {
	viper.SetDefault(key, value)
}
