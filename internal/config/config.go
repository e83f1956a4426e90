package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Simulation Simulation `mapstructure:"simulation"`
	Feed       Feed       `mapstructure:"feed"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
}

// Feed holds where the price and inflation tables come from. A URL takes
// precedence over a local path.
type Feed struct {
	Currency       string  `mapstructure:"currency"`
	PricesPath     string  `mapstructure:"prices_path"`
	PricesURL      string  `mapstructure:"prices_url"`
	InflationPath  string  `mapstructure:"inflation_path"`
	InflationURL   string  `mapstructure:"inflation_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Simulation holds the investor policy of one simulation run.
// Percentages are given as plain numbers, e.g. 15.6 for 15.6%.
type Simulation struct {
	Name          string  `mapstructure:"name"`
	InitialAmount float64 `mapstructure:"initial_amount"`
	// StartDate and EndDate are YYYY-MM-DD; empty means the series bounds.
	StartDate        string             `mapstructure:"start_date"`
	EndDate          string             `mapstructure:"end_date"`
	Allocation       map[string]float64 `mapstructure:"allocation"`
	Purchase         Purchase           `mapstructure:"purchase"`
	Rebalance        []Rebalance        `mapstructure:"rebalance"`
	Storage          Storage            `mapstructure:"storage"`
	Margins          map[string]float64 `mapstructure:"margins"`
	BuybackDiscounts map[string]float64 `mapstructure:"buyback_discounts"`
	RebalanceMarkups map[string]float64 `mapstructure:"rebalance_markups"`
}

// Purchase holds the recurring purchase plan.
type Purchase struct {
	Frequency string `mapstructure:"frequency"`
	// Day is a weekday 0..6 (0=Monday) for weekly plans and a day of month
	// otherwise. Left unset it means Monday, or the 15th for monthly and
	// quarterly plans.
	Day    int     `mapstructure:"day"`
	Amount float64 `mapstructure:"amount"`
}

// Rebalance holds one rebalance slot.
type Rebalance struct {
	Enabled      bool    `mapstructure:"enabled"`
	Conditional  bool    `mapstructure:"conditional"`
	Threshold    float64 `mapstructure:"threshold"`
	Unit         string  `mapstructure:"unit"`
	StartDate    string  `mapstructure:"start_date"`
	CooldownDays int     `mapstructure:"cooldown_days"`
	RollForward  bool    `mapstructure:"roll_forward"`
}

// Storage holds the storage fee policy.
type Storage struct {
	AnnualFee float64 `mapstructure:"annual_fee"`
	VAT       float64 `mapstructure:"vat"`
	Frequency string  `mapstructure:"frequency"`
	Basis     string  `mapstructure:"basis"`
	Selector  string  `mapstructure:"selector"`
	Metal     string  `mapstructure:"metal"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout" or a file path.
	Output string `mapstructure:"output"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	err = v.ReadInConfig()
	if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	return
}

// setDefaults mirrors the defaults of the original investor form. The
// allocation has no default here: viper merges map defaults key by key, which
// would add metals the config file left out.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.dsn", "simulations.db")

	v.SetDefault("feed.currency", "EUR")
	v.SetDefault("feed.prices_path", "lbma_data.csv")
	v.SetDefault("feed.rate_limit", 5)       // requests per second
	v.SetDefault("feed.rate_limit_burst", 1) // burst size

	v.SetDefault("simulation.name", "default")
	v.SetDefault("simulation.initial_amount", 10000.0)
	v.SetDefault("simulation.start_date", "2000-01-01")
	v.SetDefault("simulation.purchase.frequency", "none")
	v.SetDefault("simulation.storage.annual_fee", 1.5)
	v.SetDefault("simulation.storage.vat", 19.0)
	v.SetDefault("simulation.storage.frequency", "yearly")
	v.SetDefault("simulation.storage.basis", "invested")
	v.SetDefault("simulation.storage.selector", "fixed")
	v.SetDefault("simulation.storage.metal", "gold")
	v.SetDefault("simulation.margins", map[string]float64{
		"gold": 15.6, "silver": 18.36, "platinum": 24.24, "palladium": 22.49,
	})
	v.SetDefault("simulation.buyback_discounts", map[string]float64{
		"gold": -1.5, "silver": -3.0, "platinum": -3.0, "palladium": -3.0,
	})
	v.SetDefault("simulation.rebalance_markups", map[string]float64{
		"gold": 6.5, "silver": 6.5, "platinum": 6.5, "palladium": 6.5,
	})
}
