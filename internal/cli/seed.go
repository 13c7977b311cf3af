package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/okian/apest/internal/client"
	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/model"
	"github.com/okian/apest/pkg/logger"
)

// Default seed configuration constants.
const (
	defaultSeedMembers = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	outputPermission   = 0o600
)

// seedConfig holds the options of one seed run.
type seedConfig struct {
	URL     string
	Church  string
	Members int
	Workers int
	Seed    uint64
	Timeout time.Duration
	Output  string
}

// seedStats summarizes a seed run.
type seedStats struct {
	Church     string `json:"church"`
	Seed       uint64 `json:"seed"`
	Generated  int    `json:"generated"`
	Submitted  int64  `json:"submitted"`
	Duplicates int64  `json:"duplicates"`
	Failed     int64  `json:"failed"`
	DurationMs int64  `json:"duration_ms"`
}

func newSeedCommand() *cobra.Command {
	cfg := seedConfig{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Submit generated assessments to a running server",
		Long:  "Seed generates random questionnaire results for a church and submits them concurrently.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := progressLogger(cmd)
			if err != nil {
				return err
			}
			stats, err := runSeed(cmd.Context(), cfg, log)
			if perr := printJSON(cmd, stats); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&cfg.URL, "url", "u", defaultServerURL, "base URL of the apest server")
	cmd.Flags().StringVar(&cfg.Church, "church", "demo", "church to seed")
	cmd.Flags().IntVarP(&cfg.Members, "members", "m", defaultSeedMembers, "number of members to generate")
	cmd.Flags().IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*defaultWorkers, "number of concurrent submissions")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 0, "random seed (0 picks one; the one used is reported)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", "", "write the generated assessments to this YAML file")
	return cmd
}

// runSeed generates and submits assessments. Individual failures are counted;
// cancellation aborts the run.
func runSeed(ctx context.Context, cfg seedConfig, log logger.Logger) (seedStats, error) {
	stats := seedStats{Church: cfg.Church}
	if cfg.Members < 1 {
		return stats, fmt.Errorf("%w: members must be >= 1, got %d", ErrInput, cfg.Members)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	seed := cfg.Seed
	for seed == 0 {
		seed = rand.Uint64()
	}
	stats.Seed = seed

	start := time.Now()
	log.Info(ctx, "starting seed run",
		logger.String("url", cfg.URL),
		logger.String("church", cfg.Church),
		logger.Int("members", cfg.Members),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", seed))

	c := client.New(cfg.URL, client.WithTimeout(cfg.Timeout))
	if err := c.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	subs := generateSubmissions(rand.New(rand.NewPCG(seed, seed)), cfg.Church, cfg.Members)
	stats.Generated = len(subs)
	if cfg.Output != "" {
		if err := saveSubmissions(cfg.Output, subs); err != nil {
			log.Warn(ctx, "failed to save assessments to file", logger.Error(err))
		}
	}

	var submitted, duplicates, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, sub := range subs {
		g.Go(func() error {
			_, dup, err := c.SubmitAssessment(gctx, sub)
			submitted.Add(1)
			switch {
			case err == nil && dup:
				duplicates.Add(1)
			case err == nil:
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				failed.Add(1)
				log.Warn(gctx, "submission failed", logger.String("member", sub.MemberID), logger.Error(err))
			}
			return nil
		})
	}
	err := g.Wait()

	stats.Submitted = submitted.Load()
	stats.Duplicates = duplicates.Load()
	stats.Failed = failed.Load()
	stats.DurationMs = time.Since(start).Milliseconds()
	log.Info(ctx, "seed run completed",
		logger.Int("submitted", int(stats.Submitted)),
		logger.Int("duplicates", int(stats.Duplicates)),
		logger.Int("failed", int(stats.Failed)))

	if err != nil {
		return stats, fmt.Errorf("seed aborted: %w", err)
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrSeedFail, stats.Failed, stats.Generated)
	}
	return stats, nil
}

// savedSubmission doubles as an assemble pool entry.
type savedSubmission struct {
	ID           string       `yaml:"id"`
	SubmissionID string       `yaml:"submission_id"`
	Roles        apest.Vector `yaml:"roles"`
}

// saveSubmissions writes subs as YAML so a run can be inspected or fed to assemble.
func saveSubmissions(path string, subs []model.Submission) error {
	out := make([]savedSubmission, len(subs))
	for i, s := range subs {
		out[i] = savedSubmission{ID: s.MemberID, SubmissionID: s.ID, Roles: s.Roles}
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode assessments: %w", err)
	}
	if err := os.WriteFile(path, data, outputPermission); err != nil {
		return errors.Join(ErrInput, err)
	}
	return nil
}
