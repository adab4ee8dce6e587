package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/xueqianLu/ethtrader/internal/agent"
	"github.com/xueqianLu/ethtrader/internal/errno"
	"github.com/xueqianLu/ethtrader/internal/registry"
	"github.com/xueqianLu/ethtrader/internal/secretstore"
)

// EnvPrefix is prepended to environment overrides, e.g. TRADER_CHAIN_RPC_URL.
const EnvPrefix = "TRADER"

const (
	BackendFile  = "file"
	BackendVault = "vault"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig         `mapstructure:"app"`
	Server ServerConfig      `mapstructure:"server"`
	Auth   AuthConfig        `mapstructure:"auth"`
	Chain  ChainConfig       `mapstructure:"chain"`
	Secret SecretConfig      `mapstructure:"secret"`
	Gas    GasConfig         `mapstructure:"gas"`
	Swap   SwapConfig        `mapstructure:"swap"`
	Chains []ContractsConfig `mapstructure:"chains"`
}

type AppConfig struct {
	Env string `mapstructure:"env"` // "development" or "production"
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Address string `mapstructure:"address"`
}

// AuthConfig holds the HMAC credentials required by the HTTP API.
type AuthConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

type ChainConfig struct {
	RPCURL string `mapstructure:"rpc_url"`
}

// SecretConfig selects where the encrypted key blob lives.
type SecretConfig struct {
	Backend string      `mapstructure:"backend"` // "file" or "vault"
	File    string      `mapstructure:"file"`
	Vault   VaultConfig `mapstructure:"vault"`
	KDF     KDFConfig   `mapstructure:"kdf"`
}

// VaultConfig holds the Vault KV v2 location of the blob.
type VaultConfig struct {
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
	Mount   string `mapstructure:"mount"`
	Path    string `mapstructure:"path"`
}

type KDFConfig struct {
	Time      uint32 `mapstructure:"time"`
	MemoryKiB uint32 `mapstructure:"memory_kib"`
	Threads   uint8  `mapstructure:"threads"`
}

type GasConfig struct {
	PriceMultiplier uint64 `mapstructure:"price_multiplier"`
	TransferLimit   uint64 `mapstructure:"transfer_limit"`
	SwapLimit       uint64 `mapstructure:"swap_limit"`
}

type SwapConfig struct {
	SlippageBps uint32 `mapstructure:"slippage_bps"`
}

// ContractsConfig is one chain registry entry.
type ContractsConfig struct {
	ChainID uint64 `mapstructure:"chain_id"`
	WETH    string `mapstructure:"weth"`
	Factory string `mapstructure:"factory"`
	Router  string `mapstructure:"router"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("server.address", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.api_secret", "")
	v.SetDefault("chain.rpc_url", "http://127.0.0.1:8545")
	v.SetDefault("secret.backend", BackendFile)
	v.SetDefault("secret.file", "./data/wallet.enc")
	v.SetDefault("secret.vault.address", "http://127.0.0.1:8200")
	v.SetDefault("secret.vault.token", "")
	v.SetDefault("secret.vault.mount", "secret")
	v.SetDefault("secret.vault.path", "ethtrader/wallet")
	v.SetDefault("secret.kdf.time", secretstore.DefaultKDF.Time)
	v.SetDefault("secret.kdf.memory_kib", secretstore.DefaultKDF.MemoryKiB)
	v.SetDefault("secret.kdf.threads", secretstore.DefaultKDF.Threads)
	v.SetDefault("gas.price_multiplier", agent.DefaultConfig().GasPriceMultiplier)
	v.SetDefault("gas.transfer_limit", agent.DefaultConfig().TransferGasLimit)
	v.SetDefault("gas.swap_limit", agent.DefaultConfig().SwapGasLimit)
	v.SetDefault("swap.slippage_bps", 0)
	v.SetDefault("chains", []map[string]interface{}{{
		"chain_id": registry.SepoliaChainID,
		"weth":     registry.Sepolia.WETH.Hex(),
		"factory":  registry.Sepolia.Factory.Hex(),
		"router":   registry.Sepolia.Router.Hex(),
	}})
}

// LoadConfig reads configuration from file or environment variables. An
// empty path searches for config.yaml in . and ./config; a missing file is
// not an error there.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %v: %w", err, errno.ErrConfig)
		}
	}
	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %v: %w", err, errno.ErrConfig)
	}
	return config, config.Validate()
}

// Validate checks values that would otherwise fail later, mid-request.
func (c Config) Validate() error {
	var problems []string
	if c.Chain.RPCURL == "" {
		problems = append(problems, "chain.rpc_url is empty")
	}
	switch c.Secret.Backend {
	case BackendFile:
		if c.Secret.File == "" {
			problems = append(problems, "secret.file is empty")
		}
	case BackendVault:
		if c.Secret.Vault.Address == "" || c.Secret.Vault.Mount == "" || c.Secret.Vault.Path == "" {
			problems = append(problems, "secret.vault needs address, mount and path")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown secret.backend %q", c.Secret.Backend))
	}
	if _, err := secretstore.NewCrypter(c.KDF()); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Gas.PriceMultiplier == 0 {
		problems = append(problems, "gas.price_multiplier must be positive")
	}
	if c.Gas.TransferLimit == 0 || c.Gas.SwapLimit == 0 {
		problems = append(problems, "gas limits must be positive")
	}
	if c.Swap.SlippageBps >= 10000 {
		problems = append(problems, fmt.Sprintf("swap.slippage_bps %d must be below 10000", c.Swap.SlippageBps))
	}
	seen := make(map[uint64]bool)
	for _, ch := range c.Chains {
		if seen[ch.ChainID] {
			problems = append(problems, fmt.Sprintf("chain %d listed twice", ch.ChainID))
		}
		seen[ch.ChainID] = true
		for name, addr := range map[string]string{"weth": ch.WETH, "factory": ch.Factory, "router": ch.Router} {
			if !common.IsHexAddress(addr) {
				problems = append(problems, fmt.Sprintf("chain %d: invalid %s address %q", ch.ChainID, name, addr))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s: %w", strings.Join(problems, "; "), errno.ErrConfig)
	}
	return nil
}

// KDF returns the argon2id parameters for new secrets.
func (c Config) KDF() secretstore.KDFParams {
	return secretstore.KDFParams{
		Time:      c.Secret.KDF.Time,
		MemoryKiB: c.Secret.KDF.MemoryKiB,
		Threads:   c.Secret.KDF.Threads,
	}
}

func (c Config) Agent() agent.Config {
	return agent.Config{
		GasPriceMultiplier: c.Gas.PriceMultiplier,
		TransferGasLimit:   c.Gas.TransferLimit,
		SwapGasLimit:       c.Gas.SwapLimit,
		SlippageBps:        c.Swap.SlippageBps,
	}
}

// Registry builds the chain registry from the chains section.
func (c Config) Registry() (*registry.Registry, error) {
	entries := make(map[uint64]registry.Contracts, len(c.Chains))
	for _, ch := range c.Chains {
		entries[ch.ChainID] = registry.Contracts{
			WETH:    common.HexToAddress(ch.WETH),
			Factory: common.HexToAddress(ch.Factory),
			Router:  common.HexToAddress(ch.Router),
		}
	}
	return registry.New(entries)
}
