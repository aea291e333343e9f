package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/taskboard/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultAccessTTL       = "15m"
	defaultRefreshTTL      = "7d"
	defaultSweepSchedule   = "@hourly"
	defaultRateLimitPerMin = 30
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the taskboard service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Separate secrets for the two token classes: leaking one must not
	// compromise the other
	AccessSecret  string
	RefreshSecret string

	// Token lifetimes as duration strings ("15m", "7d")
	// Unparseable values fall back to the defaults
	AccessTTL  string
	RefreshTTL string

	// Bcrypt work factor, library default if zero
	BcryptCost int

	// Cron spec for the expired refresh token sweep
	SweepSchedule string

	// Requests per minute allowed per client IP on the auth endpoints
	RateLimitPerMin int

	// Environment (dev, prod)
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		AccessTTL:       defaultAccessTTL,
		RefreshTTL:      defaultRefreshTTL,
		SweepSchedule:   defaultSweepSchedule,
		RateLimitPerMin: defaultRateLimitPerMin,
		Environment:     defaultEnvironment,
	}
}

// Load variables from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if n, err := strconv.Atoi(value); err == nil {
				*o = n
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"ACCESS_TOKEN_SECRET":  setString(&c.AccessSecret),
		"REFRESH_TOKEN_SECRET": setString(&c.RefreshSecret),
		"ACCESS_TOKEN_TTL":     setString(&c.AccessTTL),
		"REFRESH_TOKEN_TTL":    setString(&c.RefreshTTL),
		"BCRYPT_COST":          setInt(&c.BcryptCost),
		"SWEEP_SCHEDULE":       setString(&c.SweepSchedule),
		"RATE_LIMIT_PER_MIN":   setInt(&c.RateLimitPerMin),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("taskboard", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Secret to sign access tokens")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Secret to sign refresh tokens")
	fs.StringVar(&c.AccessTTL, "access-ttl", c.AccessTTL, "Access token lifetime (e.g. 15m)")
	fs.StringVar(&c.RefreshTTL, "refresh-ttl", c.RefreshTTL, "Refresh token lifetime (e.g. 7d)")
	fs.IntVar(&c.BcryptCost, "bcrypt-cost", c.BcryptCost, "Bcrypt work factor")
	fs.StringVar(&c.SweepSchedule, "sweep-schedule", c.SweepSchedule, "Cron spec for expired token cleanup")
	fs.IntVar(&c.RateLimitPerMin, "rate-limit", c.RateLimitPerMin, "Requests per minute per client IP on auth endpoints")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("database DSN must be set")
	}
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return errors.New("access and refresh token secrets must be set")
	}

	return nil
}
