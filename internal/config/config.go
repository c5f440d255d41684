package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xueqianLu/txsigner/pkg/signer"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

const envPrefix = "TXSIGNER"

// Signer backend types.
const (
	SignerTypeNode     = "node"
	SignerTypeSoftware = "software"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Signer    SignerConfig    `mapstructure:"signer"`
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Address string `mapstructure:"address"`
}

// AuthConfig holds the HMAC credentials clients sign requests with.
type AuthConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

// RateLimitConfig limits sign requests. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// SignerConfig selects and configures the signing backend.
type SignerConfig struct {
	Type     string         `mapstructure:"type"` // "node" or "software"
	Node     NodeConfig     `mapstructure:"node"`
	Software SoftwareConfig `mapstructure:"software"`
}

// NodeConfig holds the node RPC connection settings.
type NodeConfig struct {
	URL      string        `mapstructure:"url"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Wallet   string        `mapstructure:"wallet"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SoftwareConfig holds the local key settings. The mnemonic comes either
// inline or from Vault.
type SoftwareConfig struct {
	Mnemonic string      `mapstructure:"mnemonic"`
	Network  string      `mapstructure:"network"`
	Index    uint32      `mapstructure:"index"`
	Vault    VaultConfig `mapstructure:"vault"`
}

// VaultConfig locates the mnemonic in a KV v2 secrets engine.
type VaultConfig struct {
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
	Mount   string `mapstructure:"mount"`
	Path    string `mapstructure:"path"`
	Field   string `mapstructure:"field"`
}

// Enabled reports whether the mnemonic should be read from Vault.
func (v VaultConfig) Enabled() bool {
	return v.Path != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.api_secret", "")
	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("log.debug", false)
	v.SetDefault("signer.type", SignerTypeNode)
	v.SetDefault("signer.node.url", "")
	v.SetDefault("signer.node.user", "")
	v.SetDefault("signer.node.password", "")
	v.SetDefault("signer.node.wallet", "")
	v.SetDefault("signer.node.timeout", 30*time.Second)
	v.SetDefault("signer.software.mnemonic", "")
	v.SetDefault("signer.software.network", string(signer.NetworkMainnet))
	v.SetDefault("signer.software.index", 0)
	v.SetDefault("signer.software.vault.address", "")
	v.SetDefault("signer.software.vault.token", "")
	v.SetDefault("signer.software.vault.mount", "secret")
	v.SetDefault("signer.software.vault.path", "")
	v.SetDefault("signer.software.vault.field", "mnemonic")
}

// LoadConfig reads configuration from the file at path, or from config.yaml
// in the working directory when path is empty. TXSIGNER_* environment
// variables override file values, e.g. TXSIGNER_SIGNER_NODE_URL.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var allErrors field.ErrorList

	if c.Server.Port == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("server", "port"), "port is required"))
	}
	if (c.Auth.APIKey == "") != (c.Auth.APISecret == "") {
		allErrors = append(allErrors, field.Invalid(field.NewPath("auth"), "<redacted>", "api_key and api_secret must be set together"))
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rate_limit", "burst"), c.RateLimit.Burst, "burst must be at least 1 when rps is set"))
	}

	allErrors = append(allErrors, c.Signer.validate(field.NewPath("signer"))...)

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func (s *SignerConfig) validate(p *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	switch s.Type {
	case SignerTypeNode:
		np := p.Child("node")
		if s.Node.URL == "" {
			allErrors = append(allErrors, field.Required(np.Child("url"), "node rpc url is required"))
		}
		if s.Node.Timeout < 0 {
			allErrors = append(allErrors, field.Invalid(np.Child("timeout"), s.Node.Timeout.String(), "timeout cannot be negative"))
		}
	case SignerTypeSoftware:
		sp := p.Child("software")
		if _, err := signer.ParseNetwork(s.Software.Network); err != nil {
			allErrors = append(allErrors, field.NotSupported(sp.Child("network"), s.Software.Network,
				[]string{string(signer.NetworkMainnet), string(signer.NetworkTestnet), string(signer.NetworkRegtest)}))
		}
		vault := s.Software.Vault
		switch {
		case s.Software.Mnemonic != "" && vault.Enabled():
			allErrors = append(allErrors, field.Forbidden(sp.Child("mnemonic"), "mnemonic and vault.path are mutually exclusive"))
		case s.Software.Mnemonic == "" && !vault.Enabled():
			allErrors = append(allErrors, field.Required(sp.Child("mnemonic"), "mnemonic or vault.path is required"))
		case s.Software.Mnemonic != "":
			if err := signer.ValidateMnemonic(s.Software.Mnemonic); err != nil {
				allErrors = append(allErrors, field.Invalid(sp.Child("mnemonic"), "<redacted>", "mnemonic is not a valid BIP39 phrase"))
			}
		}
		if vault.Enabled() {
			vp := sp.Child("vault")
			if vault.Mount == "" {
				allErrors = append(allErrors, field.Required(vp.Child("mount"), "vault mount is required"))
			}
			if vault.Field == "" {
				allErrors = append(allErrors, field.Required(vp.Child("field"), "vault field is required"))
			}
		}
	default:
		allErrors = append(allErrors, field.NotSupported(p.Child("type"), s.Type, []string{SignerTypeNode, SignerTypeSoftware}))
	}

	return allErrors
}
