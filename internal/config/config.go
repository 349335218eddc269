package config // package config loads application configuration from environment variables

import (
	"os" // os provides access to environment variables
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); the
// session lifetimes and business percentages fall back to sensible defaults.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to sign affiliate access tokens
	AccessTTLMin int    // affiliate access token time‑to‑live in minutes
	BcryptCost   int    // bcrypt cost for password hashing
	LogLevel     string // zerolog level name
	CORSOrigins  string // comma separated origins allowed to send cookies

	CompanySessionTTL time.Duration // lifetime of a company_session row and cookie
	CashierSessionTTL time.Duration // lifetime of a cashier_session row and cookie

	// DefaultCashbackPct applies when a company has no cashback config row.
	DefaultCashbackPct decimal.Decimal
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required variables cause the program to exit.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"), // empty allowed
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   envInt("BCRYPT_COST", 10),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		CORSOrigins:  envStr("CORS_ORIGINS", "http://localhost:3000"),

		CompanySessionTTL: envDur("COMPANY_SESSION_TTL", 24*time.Hour),
		CashierSessionTTL: envDur("CASHIER_SESSION_TTL", 8*time.Hour),

		DefaultCashbackPct: envDecimal("DEFAULT_CASHBACK_PCT", decimal.NewFromInt(5)),
	}
}

// IsDev reports whether the application runs in a local development mode.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development" || c.Env == "local"
}

// AllowedOrigins splits CORSOrigins into trimmed, non-empty entries.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatal().Str("key", key).Msg("missing required env var")
	}
	return v
}

func envDecimal(k string, d decimal.Decimal) decimal.Decimal {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := decimal.NewFromString(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid decimal, using default")
		return d
	}
	return n
}
