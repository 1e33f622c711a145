package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/krakentools/krakentools/accounting/ledger"
	"github.com/krakentools/krakentools/arbitrage"
	"github.com/krakentools/krakentools/model"
	"github.com/krakentools/krakentools/support/toml"
	"github.com/krakentools/krakentools/support/utils"
)

// ToolConfig is the configuration shared by all commands
type ToolConfig struct {
	KrakenAPIKey    string  `toml:"KRAKEN_API_KEY" secret:"true"`
	KrakenAPISecret string  `toml:"KRAKEN_API_SECRET" secret:"true"`
	KrakenTier      int     `toml:"KRAKEN_TIER"`
	KrakenCounterDB string  `toml:"KRAKEN_COUNTER_DB"`
	ThirtyDayVolume float64 `toml:"THIRTY_DAY_VOLUME"`

	ReferenceAsset string   `toml:"REFERENCE_ASSET"`
	UnboundedCap   *float64 `toml:"UNBOUNDED_CAP"`
	FeeConvention  string   `toml:"FEE_CONVENTION"`
	UseMakerFee    bool     `toml:"USE_MAKER_FEE"`
	ClusterBuckets *int     `toml:"CLUSTER_BUCKETS"`
	DepthCount     int32    `toml:"DEPTH_COUNT"`
	FetchWorkers   int      `toml:"FETCH_WORKERS"`
	Pairs          []string `toml:"PAIRS"`
	ArbitrageDir   string   `toml:"ARBITRAGE_DIR"`

	DepthDB             string `toml:"DEPTH_DB"`
	BalanceFile         string `toml:"BALANCE_FILE"`
	BalanceWatchSeconds int    `toml:"BALANCE_WATCH_SECONDS"`
	LedgerFile          string `toml:"LEDGER_FILE"`
	LedgerTimestampFile string `toml:"LEDGER_TIMESTAMP_FILE"`
	LedgerEntriesFile   string `toml:"LEDGER_ENTRIES_FILE"`
	LedgerAccount       string `toml:"LEDGER_ACCOUNT"`
	LedgerFeeAccount    string `toml:"LEDGER_FEE_ACCOUNT"`

	AlertType   string `toml:"ALERT_TYPE"`
	AlertAPIKey string `toml:"ALERT_API_KEY" secret:"true"`
}

// String impl.
func (c ToolConfig) String() string {
	return utils.StructString(c, 0)
}

func defaultConfig() ToolConfig {
	return ToolConfig{
		KrakenTier:          2,
		ReferenceAsset:      string(model.EUR),
		DepthCount:          100,
		FetchWorkers:        4,
		Pairs:               []string{},
		ArbitrageDir:        "arbitrage",
		DepthDB:             "data/data.db",
		BalanceFile:         "data/balance.json",
		BalanceWatchSeconds: 30,
		LedgerFile:          "data/kraken.ledger",
		LedgerTimestampFile: "data/ledger.timestamp",
		LedgerEntriesFile:   "data/kraken_ledger.json",
		LedgerAccount:       "Assets:Kraken",
		LedgerFeeAccount:    "Expenses:Kraken:Fees",
	}
}

// loadConfig reads the config file when a path is given, then applies the .env file and environment overrides
func loadConfig(path string) (*ToolConfig, error) {
	cfg := defaultConfig()
	if path != "" {
		e := toml.ReadFile(path, &cfg)
		if e != nil {
			return nil, e
		}
	}

	e := godotenv.Load()
	if e != nil && !os.IsNotExist(e) {
		return nil, fmt.Errorf("could not load .env file: %s", e)
	}

	e = applyEnvOverrides(&cfg)
	if e != nil {
		return nil, e
	}

	e = cfg.Validate()
	if e != nil {
		return nil, fmt.Errorf("invalid config: %s", e)
	}
	return &cfg, nil
}

// applyEnvOverrides lets the API credentials, the call counter and the pairs be set without touching the config file
func applyEnvOverrides(cfg *ToolConfig) error {
	setStr(&cfg.KrakenAPIKey, "KRAKEN_API_KEY")
	setStr(&cfg.KrakenAPISecret, "KRAKEN_API_SECRET")
	setStr(&cfg.KrakenCounterDB, "KRAKEN_COUNTER_DB")
	setStr(&cfg.AlertAPIKey, "ALERT_API_KEY")
	if v, ok := os.LookupEnv("PAIRS"); ok && v != "" {
		cfg.Pairs = utils.ParseCommaList(v)
	}
	return setInt(&cfg.KrakenTier, "KRAKEN_TIER")
}

func setStr(field *string, name string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*field = v
	}
}

func setInt(field *int, name string) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	parsed, e := utils.ParseMaybeInt(v)
	if e != nil {
		return fmt.Errorf("invalid value of environment variable %s: %s", name, e)
	}
	if parsed != nil {
		*field = *parsed
	}
	return nil
}

// Validate checks the values that would otherwise only fail deep inside a command
func (c ToolConfig) Validate() error {
	if c.KrakenTier < 2 || c.KrakenTier > 4 {
		return fmt.Errorf("KRAKEN_TIER needs to be 2, 3 or 4, was %d", c.KrakenTier)
	}
	if c.ReferenceAsset == "" {
		return fmt.Errorf("REFERENCE_ASSET needs to be set")
	}
	if c.UnboundedCap != nil && *c.UnboundedCap <= 0 {
		return fmt.Errorf("UNBOUNDED_CAP needs to be positive, was %s", strconv.FormatFloat(*c.UnboundedCap, 'g', -1, 64))
	}
	if c.ClusterBuckets != nil && *c.ClusterBuckets < 1 {
		return fmt.Errorf("CLUSTER_BUCKETS needs to be at least 1, was %d", *c.ClusterBuckets)
	}
	if c.DepthCount < 1 {
		return fmt.Errorf("DEPTH_COUNT needs to be at least 1, was %d", c.DepthCount)
	}
	if c.FetchWorkers < 1 {
		return fmt.Errorf("FETCH_WORKERS needs to be at least 1, was %d", c.FetchWorkers)
	}
	if c.BalanceWatchSeconds < 1 {
		return fmt.Errorf("BALANCE_WATCH_SECONDS needs to be at least 1, was %d", c.BalanceWatchSeconds)
	}
	_, e := arbitrage.FeeConventionFromString(c.FeeConvention)
	return e
}

func (c ToolConfig) normalizeOptions() arbitrage.NormalizeOptions {
	// Validate already rejected unknown conventions
	convention, _ := arbitrage.FeeConventionFromString(c.FeeConvention)
	fee := arbitrage.FeeTaker
	if c.UseMakerFee {
		fee = arbitrage.FeeMaker
	}
	return arbitrage.NormalizeOptions{
		Convention: convention,
		Fee:        fee,
	}
}

func (c ToolConfig) lpOptions(runID string) arbitrage.LPOptions {
	unboundedCap := arbitrage.DefaultUnboundedCap
	if c.UnboundedCap != nil {
		unboundedCap = *c.UnboundedCap
	}
	return arbitrage.LPOptions{
		UnboundedCap: unboundedCap,
		RunID:        runID,
	}
}

func (c ToolConfig) ledgerAccounts() ledger.Accounts {
	return ledger.Accounts{
		Account:    c.LedgerAccount,
		FeeAccount: c.LedgerFeeAccount,
	}
}

func (c ToolConfig) hasCredentials() bool {
	return c.KrakenAPIKey != "" && c.KrakenAPISecret != ""
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Writes a sample config file with the default values",
}

func init() {
	outPath := configCmd.Flags().StringP("out", "o", "krakentools.cfg", "path of the sample config file")

	configCmd.Run = func(ccmd *cobra.Command, args []string) {
		cfg := defaultConfig()
		e := toml.WriteFile(*outPath, cfg)
		if e != nil {
			utils.PrintErrorHintf("could not write the sample config to '%s'", *outPath)
			panic(e)
		}
		fmt.Printf("wrote sample config to %s\n", *outPath)
	}
}
