package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/normalfinance/normal-v1-stellar-sub001/cmd/clmmsim/config"
	"github.com/normalfinance/normal-v1-stellar-sub001/oracle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

func main() {
	rootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	close := func() {
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	if err := run(ctx, cfg, rootLogger, registry); err != nil {
		rootLogger.Error("Simulation failed", "error", err)
		close()
	}

	if cfg.MetricsAddr == "" {
		return
	}
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		rootLogger.Info("Serving metrics", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rootLogger.Error("Metrics server failed", "error", err)
			stop()
		}
	}()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func loadConfig() (*config.SimConfig, error) {
	configPath := flag.String("config", "clmmsim.yaml", "Path to the simulation file.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", *configPath)
	return config.LoadConfig(*configPath)
}

func newOracle(c *config.OracleConfig) (oracle.Source, oracle.Validity, error) {
	validity := oracle.Validity{MaxDelay: c.MaxDelay}
	if c.MaxConfidenceRatio != "" {
		ratio, err := sdkmath.LegacyNewDecFromStr(c.MaxConfidenceRatio)
		if err != nil {
			return nil, validity, fmt.Errorf("oracle.maxConfidenceRatio: %w", err)
		}
		validity.MaxConfidenceRatio = ratio
	}

	switch c.Kind {
	case "json":
		doc, err := os.ReadFile(c.Document)
		if err != nil {
			return nil, validity, err
		}
		feed := &oracle.JSONFeed{
			PricePath:       c.PricePath,
			ConfidencePath:  c.ConfidencePath,
			PublishTimePath: c.PublishTimePath,
			PublishersPath:  c.PublishersPath,
			MinPublishers:   int64(c.MinPublishers),
		}
		if err := feed.Update(doc); err != nil {
			return nil, validity, err
		}
		return feed, validity, nil
	case "borsh":
		account, err := os.ReadFile(c.Document)
		if err != nil {
			return nil, validity, err
		}
		feed := &oracle.BorshFeed{MinPublishers: c.MinPublishers}
		feed.Update(account)
		return feed, validity, nil
	default:
		precision := decimal.NewFromInt(oracle.PRICE_PRECISION)
		return oracle.Fixed{Data: oracle.PriceData{
			Price:                   c.Price.Mul(precision).IntPart(),
			Confidence:              uint64(c.Confidence.Mul(precision).IntPart()),
			HasSufficientDataPoints: true,
		}}, validity, nil
	}
}
