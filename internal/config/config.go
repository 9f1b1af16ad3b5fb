// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	RPCList         []string `mapstructure:"rpc_list"`
	Network         string   `mapstructure:"network"`
	DiscoveryURL    string   `mapstructure:"discovery_url"`
	DiscoveryAPIKey string   `mapstructure:"discovery_api_key"`
	PricingURL      string   `mapstructure:"pricing_url"`
	PrivateKey      string   `mapstructure:"private_key"`
	Destination     string   `mapstructure:"destination"`
	MinValueUSD     float64  `mapstructure:"min_value_usd"`
	ConfirmTimeout  int      `mapstructure:"confirm_timeout_ms"`
	DebugLogging    bool     `mapstructure:"debug_logging"`

	// Relay server settings.
	RelayListen    string   `mapstructure:"relay_listen"`
	RelayViewsDir  string   `mapstructure:"relay_views_dir"`
	MailAPIKey     string   `mapstructure:"mail_api_key"`
	MailFrom       string   `mapstructure:"mail_from"`
	MailRecipients []string `mapstructure:"mail_recipients"`
}

const (
	DefaultNetwork        = "mainnet-beta"
	DefaultMinValueUSD    = 50.0
	DefaultConfirmTimeout = 8000
	DefaultRelayListen    = ":4400"
	DefaultRelayViewsDir  = "views"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"network":            DefaultNetwork,
		"min_value_usd":      DefaultMinValueUSD,
		"confirm_timeout_ms": DefaultConfirmTimeout,
		"relay_listen":       DefaultRelayListen,
		"relay_views_dir":    DefaultRelayViewsDir,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if cfg.DiscoveryURL == "" {
		return errors.New("missing discovery_url in configuration")
	}
	if err := validateURLWithCache(cfg.DiscoveryURL, "http"); err != nil {
		return errors.New("invalid discovery URL protocol")
	}
	if cfg.PricingURL == "" {
		return errors.New("missing pricing_url in configuration")
	}
	if err := validateURLWithCache(cfg.PricingURL, "http"); err != nil {
		return errors.New("invalid pricing URL protocol")
	}
	if cfg.Destination == "" {
		return errors.New("missing destination address in configuration")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.ConfirmTimeout <= 0 {
		return errors.New("invalid confirm_timeout_ms")
	}
	if cfg.MinValueUSD < 0 {
		return errors.New("invalid min_value_usd")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("SOLSWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Secrets take the environment value over the config file when both
	// are present.
	if envKey := v.GetString("PRIVATE_KEY"); envKey != "" {
		cfg.PrivateKey = envKey
	}
	if envKey := v.GetString("DISCOVERY_API_KEY"); envKey != "" {
		cfg.DiscoveryAPIKey = envKey
	}
	if envKey := v.GetString("MAIL_API_KEY"); envKey != "" {
		cfg.MailAPIKey = envKey
	}

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}
	return nil
}
