package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"poolArbitrage/internal/model"
)

// EVM selects a network profile and the RPC endpoint used to reach it.
type EVM struct {
	ChainName string `mapstructure:"chainName"`
	RPCURL    string `mapstructure:"rpcUrl"`
}

// Pool holds the per-pool parts of a v4 pool key; both pools share the token
// pair.
type Pool struct {
	Fee         uint32
	TickSpacing int32
	Hooks       string
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Schedule string
	APIURL   string
	EVMs     []EVM

	BaseToken     string
	QuoteToken    string
	BaseDecimals  int
	QuoteDecimals int
	ReferencePool Pool
	HookPool      Pool

	QuoteMode          string
	MaxSteps           int
	AllowCustomSpacing bool
	ZeroForOne         bool
	AmountIn           *big.Int
	ProfitThreshold    *big.Int
	GasCostWei         *big.Int
	GasLimit           uint64

	PriceURLs   []string
	PricePath   string
	Observers   int
	Quorum      int
	HTTPTimeout time.Duration

	MaxRetries   int
	RetryBackoff time.Duration

	Cooldown      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Sink               string
	Out                string
	PGDSN              string
	SQLitePath         string
	Checkpoint         string
	CheckpointEnabled  bool
	SkipUnchangedBlock bool

	LogLevel string
}

// Chain returns the first evms entry, which selects the network profile.
func (c Config) Chain() (EVM, error) {
	if len(c.EVMs) == 0 || strings.TrimSpace(c.EVMs[0].ChainName) == "" {
		return EVM{}, fmt.Errorf("evms[0].chainName is required: %w", model.ErrConfiguration)
	}
	return c.EVMs[0], nil
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("schedule", "*/30 * * * * *")
	v.SetDefault("apiUrl", "https://api.coingecko.com/api/v3/simple/price?ids=ethereum&vs_currencies=usd")
	v.SetDefault("base-token", "")
	v.SetDefault("quote-token", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	v.SetDefault("base-decimals", -1)
	v.SetDefault("quote-decimals", -1)
	v.SetDefault("reference-pool.fee", 500)
	v.SetDefault("reference-pool.tickSpacing", 10)
	v.SetDefault("hook-pool.fee", 3000)
	v.SetDefault("hook-pool.tickSpacing", 60)
	v.SetDefault("quote-mode", "swap")
	v.SetDefault("max-steps", 256)
	v.SetDefault("zero-for-one", true)
	v.SetDefault("amount-in", "1000000000000000000")
	v.SetDefault("profit-threshold", "1000000")
	v.SetDefault("gas-cost-wei", "30000000000000")
	v.SetDefault("gas-limit", uint64(0))
	v.SetDefault("price-path", "ethereum.usd")
	v.SetDefault("observers", 1)
	v.SetDefault("quorum", 0)
	v.SetDefault("http-timeout", 10*time.Second)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("cooldown", 5*time.Minute)
	v.SetDefault("sink", "jsonl")
	v.SetDefault("out", "./data/evaluations.jsonl")
	v.SetDefault("sqlite-path", "./data/evaluations.db")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", false)
	v.SetDefault("skip-unchanged-block", false)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Schedule:           v.GetString("schedule"),
		APIURL:             v.GetString("apiUrl"),
		BaseToken:          v.GetString("base-token"),
		QuoteToken:         v.GetString("quote-token"),
		BaseDecimals:       v.GetInt("base-decimals"),
		QuoteDecimals:      v.GetInt("quote-decimals"),
		QuoteMode:          v.GetString("quote-mode"),
		MaxSteps:           v.GetInt("max-steps"),
		AllowCustomSpacing: v.GetBool("allow-custom-spacing"),
		ZeroForOne:         v.GetBool("zero-for-one"),
		GasLimit:           v.GetUint64("gas-limit"),
		PriceURLs:          getStringSlice(v, "price-urls"),
		PricePath:          v.GetString("price-path"),
		Observers:          v.GetInt("observers"),
		Quorum:             v.GetInt("quorum"),
		HTTPTimeout:        v.GetDuration("http-timeout"),
		MaxRetries:         v.GetInt("max-retries"),
		RetryBackoff:       v.GetDuration("retry-backoff"),
		Cooldown:           v.GetDuration("cooldown"),
		RedisAddr:          v.GetString("redis-addr"),
		RedisPassword:      v.GetString("redis-password"),
		RedisDB:            v.GetInt("redis-db"),
		Sink:               strings.ToLower(v.GetString("sink")),
		Out:                v.GetString("out"),
		PGDSN:              v.GetString("pg-dsn"),
		SQLitePath:         v.GetString("sqlite-path"),
		Checkpoint:         v.GetString("checkpoint"),
		CheckpointEnabled:  v.GetBool("checkpoint-enabled"),
		SkipUnchangedBlock: v.GetBool("skip-unchanged-block"),
		LogLevel:           v.GetString("log-level"),
	}

	if err := v.UnmarshalKey("evms", &cfg.EVMs); err != nil {
		return Config{}, fmt.Errorf("evms: %w: %w", model.ErrConfiguration, err)
	}
	// flat overrides for the first network, handy on the command line
	if chainName := v.GetString("chain"); chainName != "" {
		cfg.EVMs = ensureFirstEVM(cfg.EVMs)
		cfg.EVMs[0].ChainName = chainName
	}
	if rpcURL := v.GetString("rpc"); rpcURL != "" {
		cfg.EVMs = ensureFirstEVM(cfg.EVMs)
		cfg.EVMs[0].RPCURL = rpcURL
	}

	cfg.ReferencePool = readPool(v, "reference-pool")
	cfg.HookPool = readPool(v, "hook-pool")
	if hooks := v.GetString("hooks"); hooks != "" {
		cfg.HookPool.Hooks = hooks
	}

	var err error
	if cfg.AmountIn, err = parseBigInt(v, "amount-in"); err != nil {
		return Config{}, err
	}
	if cfg.ProfitThreshold, err = parseBigInt(v, "profit-threshold"); err != nil {
		return Config{}, err
	}
	if cfg.GasCostWei, err = parseBigInt(v, "gas-cost-wei"); err != nil {
		return Config{}, err
	}
	if cfg.AmountIn.Sign() <= 0 {
		return Config{}, fmt.Errorf("amount-in must be positive: %w", model.ErrConfiguration)
	}
	// gas and threshold are priced in the quote asset, so the quotes must be
	// quote-asset amounts too
	if !cfg.ZeroForOne {
		return Config{}, fmt.Errorf("zero-for-one=false is not supported; profits are measured in the quote asset: %w", model.ErrConfiguration)
	}
	if cfg.GasCostWei.Sign() < 0 {
		return Config{}, fmt.Errorf("gas-cost-wei must not be negative: %w", model.ErrConfiguration)
	}

	return cfg, nil
}

// readPool reads nested keys one by one so file values merge with defaults.
func readPool(v *viper.Viper, prefix string) Pool {
	return Pool{
		Fee:         v.GetUint32(prefix + ".fee"),
		TickSpacing: v.GetInt32(prefix + ".tickSpacing"),
		Hooks:       v.GetString(prefix + ".hooks"),
	}
}

func ensureFirstEVM(evms []EVM) []EVM {
	if len(evms) == 0 {
		return []EVM{{}}
	}
	return evms
}

// parseBigInt reads a decimal integer; config files may carry it as a string
// or a number.
func parseBigInt(v *viper.Viper, key string) (*big.Int, error) {
	val := v.Get(key)
	if f, ok := val.(float64); ok {
		bf := big.NewFloat(f)
		if !bf.IsInt() {
			return nil, fmt.Errorf("%s: %v is not an integer: %w", key, f, model.ErrConfiguration)
		}
		out, _ := bf.Int(nil)
		return out, nil
	}
	raw := strings.TrimSpace(fmt.Sprintf("%v", val))
	out, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid integer %q: %w", key, raw, model.ErrConfiguration)
	}
	return out, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
