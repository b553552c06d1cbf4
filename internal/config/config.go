package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/newthinker/scout/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Cache    CacheConfig   `mapstructure:"cache"`
	Scans    ScansConfig   `mapstructure:"scans"`
	Features FeatureConfig `mapstructure:"features"`
	Scoring  ScoringConfig `mapstructure:"scoring"`
	Ranking  RankingConfig `mapstructure:"ranking"`
	Engine   EngineConfig  `mapstructure:"engine"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Backend selects where a store keeps its files, a local directory or
// an S3-compatible service.
type Backend struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Dir  string   `mapstructure:"dir"`
	S3   S3Config `mapstructure:"s3"`
}

// CacheConfig locates the pre-fetched OHLCV cache. This engine never fetches;
// a symbol missing from the cache degrades to the no_data result path.
type CacheConfig struct {
	Backend        `mapstructure:",squash"`
	FreshnessHours int `mapstructure:"freshness_hours"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// ScansConfig locates scan documents. Same backend choices as the cache,
// so documents can live next to the price data or on a separate store.
type ScansConfig struct {
	Backend `mapstructure:",squash"`
}

// FeatureConfig holds the lookback windows for derived features. The pivot
// and breakout lookbacks are heuristic defaults carried over from operational
// tuning, not load-bearing invariants.
type FeatureConfig struct {
	DonchianDays         int     `mapstructure:"donchian_days"`
	BreakoutLookbackDays int     `mapstructure:"breakout_lookback_days"`
	PivotWindow          int     `mapstructure:"pivot_window"`
	PivotLookbackDays    int     `mapstructure:"pivot_lookback_days"`
	VolumeAvgDays        int     `mapstructure:"volume_avg_days"`
	RangeDays            int     `mapstructure:"range_days"`
	TightRangeMaxPct     float64 `mapstructure:"tight_range_max_pct"`
	CloseNearHighMaxPct  float64 `mapstructure:"close_near_high_max_pct"`
}

// ScoringConfig holds every named threshold used by the setup rubrics so
// operators can tune policy without touching scoring code.
type ScoringConfig struct {
	MaxExtensionAboveSMA20Pct float64 `mapstructure:"max_extension_above_sma20_pct"`
	NearSupportPct            float64 `mapstructure:"near_support_pct"`
	NearSMAPct                float64 `mapstructure:"near_sma_pct"`
	RSIIdealMin               float64 `mapstructure:"rsi_ideal_min"`
	RSIIdealMax               float64 `mapstructure:"rsi_ideal_max"`
	RSIOverboughtMax          float64 `mapstructure:"rsi_overbought_max"`
	MinVolumeRatioBounce      float64 `mapstructure:"min_volume_ratio_bounce"`
	BreakoutMinVolumeRatio    float64 `mapstructure:"breakout_min_volume_ratio"`
	BreakoutStrongVolumeRatio float64 `mapstructure:"breakout_strong_volume_ratio"`
	MaxDaysSinceBreakout      int     `mapstructure:"max_days_since_breakout"`
	RecentBreakoutMaxDays     int     `mapstructure:"recent_breakout_max_days"`
	MinBounceChangePct        float64 `mapstructure:"min_bounce_change_pct"`
	MinBounceVolumeRatio      float64 `mapstructure:"min_bounce_volume_ratio"`
	PullbackMinScore          int     `mapstructure:"pullback_min_score"`
	BreakoutMinScore          int     `mapstructure:"breakout_min_score"`
	ReversalMinScore          int     `mapstructure:"reversal_min_score"`
}

type RankingConfig struct {
	TopN int `mapstructure:"top_n"`
}

type EngineConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8085,
		},
		Cache: CacheConfig{
			Backend:        Backend{Type: "localfs", Dir: "cache/ohlcv"},
			FreshnessHours: 18,
		},
		Scans: ScansConfig{
			Backend: Backend{Type: "localfs", Dir: "data/scans"},
		},
		Features: FeatureConfig{
			DonchianDays:         20,
			BreakoutLookbackDays: 30,
			PivotWindow:          2,
			PivotLookbackDays:    90,
			VolumeAvgDays:        20,
			RangeDays:            10,
			TightRangeMaxPct:     4.0,
			CloseNearHighMaxPct:  1.0,
		},
		Scoring: ScoringConfig{
			MaxExtensionAboveSMA20Pct: 8.0,
			NearSupportPct:            3.0,
			NearSMAPct:                3.0,
			RSIIdealMin:               35.0,
			RSIIdealMax:               55.0,
			RSIOverboughtMax:          70.0,
			MinVolumeRatioBounce:      1.2,
			BreakoutMinVolumeRatio:    1.5,
			BreakoutStrongVolumeRatio: 2.0,
			MaxDaysSinceBreakout:      5,
			RecentBreakoutMaxDays:     3,
			MinBounceChangePct:        1.0,
			MinBounceVolumeRatio:      1.2,
			PullbackMinScore:          60,
			BreakoutMinScore:          65,
			ReversalMinScore:          60,
		},
		Ranking: RankingConfig{
			TopN: 10,
		},
		Engine: EngineConfig{
			Concurrency: 4,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func (b Backend) validate(section string) error {
	switch b.Type {
	case "localfs", "s3":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("%s type must be localfs or s3, got %q", section, b.Type))
	}
	if b.Type == "s3" && b.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("s3 bucket required when %s type is s3", section))
	}
	return nil
}

// Validate checks the configuration for errors. A bad threshold would
// silently corrupt every score, so this runs before any symbol is processed.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if err := c.Cache.Backend.validate("cache"); err != nil {
		return err
	}
	if err := c.Scans.Backend.validate("scans"); err != nil {
		return err
	}

	f := c.Features
	for name, v := range map[string]int{
		"donchian_days":          f.DonchianDays,
		"breakout_lookback_days": f.BreakoutLookbackDays,
		"pivot_window":           f.PivotWindow,
		"pivot_lookback_days":    f.PivotLookbackDays,
		"volume_avg_days":        f.VolumeAvgDays,
		"range_days":             f.RangeDays,
	} {
		if v < 1 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s must be at least 1, got %d", name, v))
		}
	}
	if f.TightRangeMaxPct < 0 || f.CloseNearHighMaxPct < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("feature percentage thresholds cannot be negative"))
	}

	s := c.Scoring
	for name, v := range map[string]float64{
		"max_extension_above_sma20_pct": s.MaxExtensionAboveSMA20Pct,
		"near_support_pct":              s.NearSupportPct,
		"near_sma_pct":                  s.NearSMAPct,
		"min_volume_ratio_bounce":       s.MinVolumeRatioBounce,
		"breakout_min_volume_ratio":     s.BreakoutMinVolumeRatio,
		"breakout_strong_volume_ratio":  s.BreakoutStrongVolumeRatio,
		"min_bounce_volume_ratio":       s.MinBounceVolumeRatio,
	} {
		if v < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s cannot be negative, got %f", name, v))
		}
	}
	if s.RSIIdealMin < 0 || s.RSIIdealMax > 100 || s.RSIIdealMin >= s.RSIIdealMax {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rsi ideal band must satisfy 0 <= min < max <= 100, got [%f, %f]",
				s.RSIIdealMin, s.RSIIdealMax))
	}
	if s.RSIOverboughtMax < 0 || s.RSIOverboughtMax > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rsi_overbought_max must be within [0, 100], got %f", s.RSIOverboughtMax))
	}
	if s.MaxDaysSinceBreakout < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_days_since_breakout must be at least 1, got %d", s.MaxDaysSinceBreakout))
	}
	if s.RecentBreakoutMaxDays < 0 || s.RecentBreakoutMaxDays > s.MaxDaysSinceBreakout {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("recent_breakout_max_days must be within [0, max_days_since_breakout], got %d",
				s.RecentBreakoutMaxDays))
	}
	for name, v := range map[string]int{
		"pullback_min_score": s.PullbackMinScore,
		"breakout_min_score": s.BreakoutMinScore,
		"reversal_min_score": s.ReversalMinScore,
	} {
		if v < 0 || v > 100 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s must be within [0, 100], got %d", name, v))
		}
	}

	if c.Ranking.TopN < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("top_n must be at least 1, got %d", c.Ranking.TopN))
	}
	if c.Engine.Concurrency < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("concurrency must be at least 1, got %d", c.Engine.Concurrency))
	}

	return nil
}
