package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sunrise-finder/admission/infra"
	"sunrise-finder/sunrise"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SUNRISE"

type config struct {
	count int
	print bool
	date  string

	maxInFlight int
	minPause    time.Duration
	baseURL     string
	rps         float64
	burst       int
	logLevel    string

	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("sunrise", pflag.ContinueOnError)
	fs.IntP("count", "c", 100, "number of data points to generate")
	fs.BoolP("print", "p", false, "print out raw and enhanced data points")
	fs.String("date", "", "date (YYYY-MM-DD) used for every lookup; empty = today (UTC)")

	fs.Int("max-in-flight", infra.DefaultMaxInFlight, "max concurrent requests to the sunrise api")
	fs.Duration("min-pause", infra.DefaultMinPauseTime, "minimum pause after a full batch of requests")
	fs.String("base-url", sunrise.DefaultBaseURL, "sunrise/sunset api endpoint")
	fs.Float64("rps", 0, "optional requests per second per host (0 = off)")
	fs.Int("burst", 1, "token bucket burst when --rps is set")
	fs.String("log-level", "info", "debug, info, warn or error")

	fs.String("stats-redis-addr", "", "redis address for admission stats (empty = off)")
	fs.String("stats-redis-password", "", "redis password for admission stats")
	fs.Int("stats-redis-db", 0, "redis db for admission stats")
	fs.String("stats-prefix", "admission:stats", "redis key prefix for admission stats")
	fs.Duration("stats-ttl", 24*time.Hour, "ttl of per-minute and per-name stats keys")
	return fs
}

// readConfig combina flags e variáveis de ambiente (SUNRISE_MAX_IN_FLIGHT, ...).
// Flag explícita vence env, que vence o default.
func readConfig(args []string) (config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return config{}, fmt.Errorf("bind flags: %w", err)
	}

	cfg := config{
		count: v.GetInt("count"),
		print: v.GetBool("print"),
		date:  strings.TrimSpace(v.GetString("date")),

		maxInFlight: v.GetInt("max-in-flight"),
		minPause:    v.GetDuration("min-pause"),
		baseURL:     strings.TrimSpace(v.GetString("base-url")),
		rps:         v.GetFloat64("rps"),
		burst:       v.GetInt("burst"),
		logLevel:    v.GetString("log-level"),

		statsRedisAddr:     strings.TrimSpace(v.GetString("stats-redis-addr")),
		statsRedisPassword: v.GetString("stats-redis-password"),
		statsRedisDB:       v.GetInt("stats-redis-db"),
		statsPrefix:        v.GetString("stats-prefix"),
		statsTTL:           v.GetDuration("stats-ttl"),
	}

	if cfg.count <= 0 {
		return config{}, fmt.Errorf("invalid number %d given: count must be > 0", cfg.count)
	}
	if cfg.maxInFlight < 1 {
		return config{}, errors.New("max-in-flight must be >= 1")
	}
	if cfg.minPause < 0 {
		return config{}, errors.New("min-pause must be >= 0")
	}
	if cfg.rps < 0 {
		return config{}, errors.New("rps must be >= 0")
	}
	if cfg.rps > 0 && cfg.burst < 1 {
		return config{}, errors.New("burst must be >= 1 when rps is set")
	}
	if cfg.baseURL == "" {
		return config{}, errors.New("base-url is required")
	}
	if cfg.date != "" {
		if _, err := time.Parse(time.DateOnly, cfg.date); err != nil {
			return config{}, fmt.Errorf("invalid date %q: %w", cfg.date, err)
		}
	}
	return cfg, nil
}
