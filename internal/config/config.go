package config

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all process configuration. The facility DSN map is parsed once
// at load time and never mutated afterwards; the registry built from it is
// safe for unsynchronized concurrent reads.
type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	FacilityDSNs         string        `mapstructure:"FACILITY_DSNS"`
	AdminFacilityID      int64         `mapstructure:"ADMIN_FACILITY_ID"`
	FacilityFetchTimeout time.Duration `mapstructure:"FACILITY_FETCH_TIMEOUT"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	JWTSigningKey        string        `mapstructure:"JWT_SIGNING_KEY"`
	AuthIssuer           string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience         string        `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL          string        `mapstructure:"AUTH_JWKS_URL"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("ADMIN_FACILITY_ID", 1)
	v.SetDefault("FACILITY_FETCH_TIMEOUT", "5s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("FACILITY_DSNS")
	v.BindEnv("ADMIN_FACILITY_ID")
	v.BindEnv("FACILITY_FETCH_TIMEOUT")
	v.BindEnv("REDIS_URL")
	v.BindEnv("JWT_SIGNING_KEY")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.FacilityDSNs == "" {
		return nil, fmt.Errorf("FACILITY_DSNS is required")
	}
	if _, err := cfg.FacilityStores(); err != nil {
		return nil, err
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active — all requests get admin access.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// FacilityStores parses FACILITY_DSNS into a facility-id → connection-string
// map. The format is semicolon-separated "id=url" pairs, e.g.
//
//	FACILITY_DSNS=2=postgres://host-a/gye;3=postgres://host-b/cue
//
// An entry must exist for every facility id that can ever appear in an
// identity's facility claim, except the administrative facility, which has no
// local store of its own.
func (c *Config) FacilityStores() (map[int64]string, error) {
	stores := make(map[int64]string)
	for _, pair := range strings.Split(c.FacilityDSNs, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idStr, dsn, ok := strings.Cut(pair, "=")
		if !ok || dsn == "" {
			return nil, fmt.Errorf("FACILITY_DSNS entry %q is not of the form id=url", pair)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("FACILITY_DSNS entry %q has a non-numeric facility id", pair)
		}
		if id == c.AdminFacilityID {
			return nil, fmt.Errorf("FACILITY_DSNS must not contain the administrative facility id %d", id)
		}
		if _, dup := stores[id]; dup {
			return nil, fmt.Errorf("FACILITY_DSNS contains facility id %d twice", id)
		}
		stores[id] = strings.TrimSpace(dsn)
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("FACILITY_DSNS contains no usable entries")
	}
	return stores, nil
}

// FacilityIDs returns the configured local-data-bearing facility ids, sorted.
func (c *Config) FacilityIDs() []int64 {
	stores, err := c.FacilityStores()
	if err != nil {
		return nil
	}
	ids := make([]int64, 0, len(stores))
	for id := range stores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate checks that the configuration is safe to run. In non-development
// modes a JWT verification source must be configured so that real
// authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSigningKey == "" && c.AuthIssuer == "" && c.AuthJWKSURL == "" {
		return fmt.Errorf(
			"one of JWT_SIGNING_KEY, AUTH_ISSUER or AUTH_JWKS_URL must be set when ENV=%q. "+
				"Refusing to start without authentication configuration", c.Env)
	}
	if c.FacilityFetchTimeout <= 0 {
		return fmt.Errorf("FACILITY_FETCH_TIMEOUT must be positive, got %s", c.FacilityFetchTimeout)
	}
	return nil
}
