// Package config loads and validates enricher configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/rider-enricher/internal/cache"
	"github.com/JakeFAU/rider-enricher/internal/logging"
	"github.com/JakeFAU/rider-enricher/internal/scorito"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging      logging.Config     `mapstructure:"logging"`
	PCS          PCSConfig          `mapstructure:"pcs"`
	Cache        cache.Config       `mapstructure:"cache"`
	Scorito      scorito.Config     `mapstructure:"scorito"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Competitions CompetitionsConfig `mapstructure:"competitions"`
}

// PCSConfig locates the profile site and paces requests against it.
type PCSConfig struct {
	ProfileBaseURL string            `mapstructure:"profile_base_url"`
	SearchURL      string            `mapstructure:"search_url"`
	UserAgent      string            `mapstructure:"user_agent"`
	RequestTimeout time.Duration     `mapstructure:"request_timeout"`
	NotFoundMarker string            `mapstructure:"not_found_marker"`
	ITTMarker      string            `mapstructure:"itt_marker"`
	WindowSize     int               `mapstructure:"window_size"`
	CoolDown       time.Duration     `mapstructure:"cool_down"`
	SlugOverrides  map[string]string `mapstructure:"slug_overrides"`
}

// MetricsConfig enables the scrape endpoint and the Pushgateway push.
type MetricsConfig struct {
	Addr    string `mapstructure:"addr"`
	PushURL string `mapstructure:"push_url"`
	Job     string `mapstructure:"job"`
}

// CompetitionConfig describes one game run.
type CompetitionConfig struct {
	RaceID int      `mapstructure:"race_id"`
	Races  []string `mapstructure:"races"`
	Output string   `mapstructure:"output"`
}

// CompetitionsConfig groups the supported game formats.
type CompetitionsConfig struct {
	Classics  CompetitionConfig `mapstructure:"classics"`
	GrandTour CompetitionConfig `mapstructure:"grand_tour"`
}

// ClassicsRaces is the default race filter for the classics game.
var ClassicsRaces = []string{
	"Omloop Het Nieuwsblad ME",
	"Kuurne - Bruxelles - Kuurne",
	"Gent-Wevelgem in Flanders Fields",
	"Dwars door Vlaanderen - A travers la Flandre",
	"Ronde van Vlaanderen - Tour des Flandres",
	"Paris-Roubaix",
	"E3 Saxo Bank Classic",
	"Oxyclean Classic Brugge-De Panne",
	"Milano-Sanremo",
	"La Flèche Wallonne",
	"Liège-Bastogne-Liège",
	"Strade Bianche",
	"Scheldeprijs",
	"De Brabantse Pijl - La Flèche Brabançonne",
	"Amstel Gold Race",
	"Eschborn-Frankfurt",
}

// Load builds a Config from defaults, an optional file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENRICHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("pcs.profile_base_url", "https://www.procyclingstats.com/rider")
	v.SetDefault("pcs.search_url", "https://www.procyclingstats.com/resources/search.php")
	v.SetDefault("pcs.user_agent", "rider-enricher/0.1")
	v.SetDefault("pcs.request_timeout", 30*time.Second)
	v.SetDefault("pcs.not_found_marker", "Page not found")
	v.SetDefault("pcs.itt_marker", "(ITT)")
	v.SetDefault("pcs.window_size", 50)
	v.SetDefault("pcs.cool_down", 5*time.Second)
	v.SetDefault("cache.backend", cache.BackendSQLite)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.dir", ".cache/rider-enricher")
	v.SetDefault("cache.sqlite_path", "")
	v.SetDefault("cache.redis.address", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 10)
	v.SetDefault("cache.redis.prefix", "rider-enricher:")
	v.SetDefault("cache.postgres.dsn", "")
	v.SetDefault("cache.postgres.table", "rider_cache")
	v.SetDefault("scorito.base_url", scorito.DefaultBaseURL)
	v.SetDefault("scorito.timeout", scorito.DefaultTimeout)
	v.SetDefault("scorito.attempts", scorito.DefaultAttempts)
	v.SetDefault("scorito.retry_delay", 500*time.Millisecond)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.push_url", "")
	v.SetDefault("metrics.job", "rider-enricher")
	v.SetDefault("competitions.classics.race_id", 173)
	v.SetDefault("competitions.classics.races", ClassicsRaces)
	v.SetDefault("competitions.classics.output", "classics.csv")
	v.SetDefault("competitions.grand_tour.race_id", 171)
	v.SetDefault("competitions.grand_tour.output", "grand-tour.csv")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.PCS.ProfileBaseURL == "" {
		return fmt.Errorf("pcs.profile_base_url is required")
	}
	if c.PCS.SearchURL == "" {
		return fmt.Errorf("pcs.search_url is required")
	}
	if c.PCS.WindowSize <= 0 {
		return fmt.Errorf("pcs.window_size must be > 0")
	}
	if c.PCS.CoolDown < 0 {
		return fmt.Errorf("pcs.cool_down must be >= 0")
	}
	if c.PCS.RequestTimeout <= 0 {
		return fmt.Errorf("pcs.request_timeout must be > 0")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}
	switch c.Cache.Backend {
	case cache.BackendMemory, cache.BackendSQLite:
	case cache.BackendFS:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required for the fs backend")
		}
	case cache.BackendRedis:
		if c.Cache.Redis.Address == "" {
			return fmt.Errorf("cache.redis.address is required for the redis backend")
		}
	case cache.BackendPostgres:
		if c.Cache.Postgres.DSN == "" {
			return fmt.Errorf("cache.postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Cache.Backend == cache.BackendSQLite && c.Cache.Dir == "" && c.Cache.SQLitePath == "" {
		return fmt.Errorf("cache.sqlite_path or cache.dir is required for the sqlite backend")
	}
	return nil
}
