package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	envPrefix         = "STOREFRONT"
)

var ErrInvalidConfig = errors.New("invalid config")

type storage struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type catalog struct {
	File string `mapstructure:"file"`
}

type search struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type assistant struct {
	APIKey       string `mapstructure:"api_key"`
	APIKeySecret string `mapstructure:"api_key_secret"`
	TextModel    string `mapstructure:"text_model"`
	ImageModel   string `mapstructure:"image_model"`
}

type topics struct {
	Activity string `mapstructure:"activity"`
}

type tlsFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type broker struct {
	Enabled            bool     `mapstructure:"enabled"`
	SeedBrokers        []string `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string `mapstructure:"schema_registry_urls"`
	Topics             topics   `mapstructure:"topics"`
	Partitions         int32    `mapstructure:"partitions"`
	ReplicationFactor  int16    `mapstructure:"replication_factor"`
	TLS                tlsFiles `mapstructure:"tls"`
}

type Config struct {
	LogLevel           slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr     string        `mapstructure:"http_server_addr"`
	HTTPHandlerTimeout time.Duration `mapstructure:"http_handler_timeout"`
	Storage            storage       `mapstructure:"storage"`
	Catalog            catalog       `mapstructure:"catalog"`
	Search             search        `mapstructure:"search"`
	Assistant          assistant     `mapstructure:"assistant"`
	Broker             broker        `mapstructure:"broker"`
}

var defaults = map[string]any{
	"log_level":                   "info",
	"http_server_addr":            ":8080",
	"http_handler_timeout":        "60s",
	"storage.driver":              "sqlite",
	"storage.dsn":                 "file:storefront.db",
	"catalog.file":                "",
	"search.debounce":             "300ms",
	"assistant.api_key":           "",
	"assistant.api_key_secret":    "",
	"assistant.text_model":        "gemini-3-flash-preview",
	"assistant.image_model":       "gemini-2.5-flash-image",
	"broker.enabled":              false,
	"broker.seed_brokers":         []string{},
	"broker.schema_registry_urls": []string{},
	"broker.topics.activity":      "shopper-activity",
	"broker.partitions":           3,
	"broker.replication_factor":   3,
	"broker.tls.ca":               "",
	"broker.tls.cert":             "",
	"broker.tls.key":              "",
}

// Load reads the config file named by the --config flag or the
// STOREFRONT_CONFIG_FILE env, applies STOREFRONT_* env overrides and resolves
// the model API key. Any failure terminates the process.
func Load(ctx context.Context) Config {
	cfg, err := Read(getConfigFilepath(), os.LookupEnv)
	if err != nil {
		die(err)
	}

	if err := cfg.ResolveAPIKey(ctx, SecretManager{}); err != nil {
		die(err)
	}
	return cfg
}

// Read builds the config from defaults, the optional file at path and the
// environment. lookupEnv is consulted only for the config file path.
func Read(
	path string, lookupEnv func(string) (string, bool),
) (Config, error) {
	const op = "config.Read"

	if env, ok := lookupEnv(configFileEnvName); ok {
		path = env
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "sqlite", "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.HTTPHandlerTimeout <= 0 {
		errs = append(errs, errors.New("http_handler_timeout must be positive"))
	}
	if c.Search.Debounce < 0 {
		errs = append(errs, errors.New("search.debounce must not be negative"))
	}
	if c.Broker.Enabled {
		if len(c.Broker.SeedBrokers) == 0 {
			errs = append(errs, errors.New("broker.seed_brokers: required"))
		}
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls: required"))
		}
		if c.Broker.Topics.Activity == "" {
			errs = append(errs, errors.New("broker.topics.activity: required"))
		}
	}
	if len(errs) != 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	HTTPHandlerTimeout=%s
	Storage:
		Driver=%q
	Catalog:
		File=%q
	Search:
		Debounce=%s

	Assistant:
	APIKey=%s
	TextModel=%q
	ImageModel=%q

	BrokerConfig:
	Enabled=%t
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	Topics:
		Activity=%q
	TLS=%t

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.HTTPHandlerTimeout,
		c.Storage.Driver,
		c.Catalog.File,
		c.Search.Debounce,
		mask(c.Assistant.APIKey),
		c.Assistant.TextModel,
		c.Assistant.ImageModel,
		c.Broker.Enabled,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.Topics.Activity,
		c.Broker.TLS.CA != "",
	)
}

func mask(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	return "<set>"
}
