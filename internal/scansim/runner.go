package scansim

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/absensi/pkg/logger"
)

// Run checks the service, prepares the tokens and submits them one by one
// with cfg.Delay between submissions. It stops early when ctx ends.
func Run(ctx context.Context, cfg *Config) (Stats, error) {
	log := logger.Get().Named("scan-sim")
	stats := Stats{StartTime: time.Now()}

	log.Info(ctx, "starting scan simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("tokensFile", cfg.TokensFile),
		logger.Int("students", len(cfg.StudentIDs)),
		logger.Int("repeat", cfg.Repeat),
		logger.Duration("delay", cfg.Delay))

	client := newHTTPClient(cfg.Timeout)
	if err := checkServiceHealth(ctx, client, cfg.BaseURL); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	tokens, err := prepareTokens(cfg)
	if err != nil {
		return stats, err
	}

	url := cfg.BaseURL + "/scan"
	passes := max(cfg.Repeat, 1)
	first := true
loop:
	for pass := 0; pass < passes; pass++ {
		if cfg.Shuffle {
			shuffle(tokens)
		}
		for _, tok := range tokens {
			if !first {
				select {
				case <-ctx.Done():
					break loop
				case <-time.After(cfg.Delay):
				}
			}
			first = false

			outcome, msg := submitScan(ctx, client, url, tok)
			stats.add(outcome)
			if cfg.Verbose || outcome == Failed {
				log.Info(ctx, "scan submitted",
					logger.Int("pass", pass+1),
					logger.String("outcome", string(outcome)),
					logger.String("message", msg))
			}
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func prepareTokens(cfg *Config) ([]string, error) {
	if cfg.TokensFile != "" {
		return LoadTokens(cfg.TokensFile)
	}
	return GenerateTokens(cfg.Secret, cfg.StudentIDs, time.Now())
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	resp, err := client.Get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats Stats) {
	var acceptRate float64
	if stats.Submitted > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.Submitted) * PercentageMultiplier
	}

	log.Info(ctx, "final statistics",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("cooldown", stats.Cooldown),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate))
}
