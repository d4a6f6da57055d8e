package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sunrise-finder/admission"
	"sunrise-finder/admission/application"
	"sunrise-finder/admission/infra"
	"sunrise-finder/datapoint"
	"sunrise-finder/sunrise"

	"github.com/redis/go-redis/v9"
	"github.com/schollz/progressbar/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := readConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	log := newLogger(os.Stderr, cfg.logLevel)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("%v", err)
	}
}

// run gera os pontos, enriquece cada um pela API (sob o controle de admissão)
// e imprime a duração do dia do ponto com o nascer do sol mais cedo.
func run(ctx context.Context, cfg config, log *logrus.Logger, stdout, progressOut io.Writer) error {
	memStats := infra.NewMemoryStatsStore()
	stats := infra.MultiStatsStore{memStats}

	if cfg.statsRedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return fmt.Errorf("redis stats ping error: %w", err)
		}

		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
		))
	}

	controller := infra.NewController(
		infra.WithMaxInFlight(cfg.maxInFlight),
		infra.WithMinPauseTime(cfg.minPause),
		infra.WithLogger(log),
	)

	var pace application.PaceService
	if cfg.rps > 0 {
		store := infra.NewStore(cfg.rps, cfg.burst)
		store.StartJanitor(ctx)
		pace.Store = store
	}

	client := &sunrise.Client{
		BaseURL: cfg.baseURL,
		HTTP: &http.Client{
			Timeout:   30 * time.Second,
			Transport: admission.NewTransport(admission.TransportOptions{Pace: pace}),
		},
		Admission: application.Service{
			Gate:  controller,
			Stats: stats,
			Name:  "sunrise.getTimes",
		},
	}

	log.Infof("admission: maxInFlight=%d minPause=%s rps=%.3f", controller.MaxInFlight(), controller.MinPauseTime(), cfg.rps)

	points := datapoint.Generate(cfg.count, nil)
	log.Infof("%d data points generated", len(points))

	if cfg.print {
		if err := printJSON(stdout, "Raw data points:", points); err != nil {
			return err
		}
	}

	date := cfg.date
	if date == "" {
		date = time.Now().UTC().Format(time.DateOnly)
	}

	bar := progressbar.NewOptions(len(points),
		progressbar.OptionSetWriter(progressOut),
		progressbar.OptionSetDescription("Enhancing data points"),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	enhancer := datapoint.Enhancer{
		Fetcher:    client,
		Date:       date,
		Log:        log,
		OnProgress: func(int, int) { _ = bar.Add(1) },
	}
	enhanced := enhancer.Enhance(ctx, points)
	_ = bar.Finish()
	_, _ = fmt.Fprintln(progressOut)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}

	ok := 0
	for _, p := range enhanced {
		if p.Enhanced {
			ok++
		}
	}
	total := memStats.Total()
	log.Infof("%d data points enhanced (%d requests failed)", ok, total.Failed)
	if total.Admitted > 0 {
		log.Debugf("admission: mean queue wait %s", total.Waited/time.Duration(total.Admitted))
	}

	if cfg.print {
		if err := printJSON(stdout, "Enhanced data points:", enhanced); err != nil {
			return err
		}
	}

	earliest, found := datapoint.Earliest(enhanced)
	if !found {
		return errors.New("no data point could be enhanced with sunrise times")
	}

	_, err := fmt.Fprintln(stdout, "Day length (in seconds) of earliest sunrise in generated data:", earliest.DayLength)
	return err
}

func printJSON(w io.Writer, title string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n", title, b)
	return err
}
