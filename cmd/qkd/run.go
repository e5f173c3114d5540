package main

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Glassar/dd2394-Security-Project/qkd"
	"github.com/Glassar/dd2394-Security-Project/qkd/report"
)

var (
	runs           int
	outPath        string
	transcriptPath string
	metricsPath    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run key distribution and print a JSON report per run",
	Long: `Run performs one or more key distributions. Flags override the matching
option of the config file.

Example:
  qkd run --protocol e91 --bits 4096 --eve
  qkd run -c qkd.yaml --runs 10 --transcript runs.bin --metrics-out metrics.txt`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("protocol", string(qkd.BB84), "bb84 or e91")
	f.Int("bits", qkd.DefaultNumberOfBits, "trials exchanged per run")
	f.Bool("eve", false, "place an eavesdropper on the channel")
	f.Float64("interception-rate", 1, "fraction of trials the eavesdropper measures")
	f.Bool("noise", false, "simulate channel noise")
	f.Float64("threshold", qkd.DefaultRiskThreshold, "mismatch rate at which risk saturates")
	f.Bool("abort", false, "stop before reconciliation when risk saturates")
	f.String("amplification", qkd.MethodHash, "privacy amplification method, hash or toeplitz")
	f.Int64("seed", 0, "RNG seed; defaults to the current time")
	f.IntVar(&runs, "runs", 1, "number of runs")
	f.StringVarP(&outPath, "out", "o", "", "write JSON reports here instead of stdout")
	f.StringVar(&transcriptPath, "transcript", "", "append length-prefixed binary reports to this file")
	f.StringVar(&metricsPath, "metrics-out", "", "write Prometheus metrics in text format here after the last run")
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cmd *cobra.Command, cfg *qkd.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func()) {
		if err == nil && f.Changed(name) {
			apply()
		}
	}
	set("protocol", func() {
		var p string
		p, err = f.GetString("protocol")
		cfg.Protocol = qkd.Protocol(p)
	})
	set("bits", func() { cfg.NumberOfBits, err = f.GetInt("bits") })
	set("eve", func() { cfg.EavesdropperPresent, err = f.GetBool("eve") })
	set("interception-rate", func() { cfg.EavesdropperInterceptionRate, err = f.GetFloat64("interception-rate") })
	set("noise", func() { cfg.NoiseEnabled, err = f.GetBool("noise") })
	set("threshold", func() { cfg.RiskThreshold, err = f.GetFloat64("threshold") })
	set("abort", func() { cfg.AbortOnSaturatedRisk, err = f.GetBool("abort") })
	set("amplification", func() { cfg.Amplification.Method, err = f.GetString("amplification") })
	set("seed", func() { cfg.Seed, err = f.GetInt64("seed") })
	if err != nil {
		return err
	}
	if !f.Changed("seed") && configPath == "" {
		cfg.Seed = time.Now().UnixNano()
	}
	return cfg.Validate()
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return errors.Wrap(err, "creating report file")
		}
		defer f.Close()
		out = f
	}
	var transcript *report.Writer
	if transcriptPath != "" {
		f, err := os.OpenFile(transcriptPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Wrap(err, "opening transcript")
		}
		defer f.Close()
		transcript = report.NewWriter(f)
	}

	reg := prometheus.NewRegistry()
	p, err := qkd.NewPipeline(qkd.PipelineOpts{
		Config:  cfg,
		Logger:  logger,
		Metrics: qkd.NewMetrics(reg),
	})
	if err != nil {
		return err
	}

	for i := 0; i < runs; i++ {
		res, err := p.Run(cmd.Context())
		if err != nil && !errors.Is(err, qkd.ErrRiskSaturated) {
			return errors.Wrapf(err, "run %d", i)
		}
		if err != nil {
			logger.Warn("run aborted", zap.Int("run", i), zap.Error(err))
		}
		r := report.FromResult(res)
		if err := report.WriteJSON(out, r); err != nil {
			return err
		}
		if transcript != nil {
			if err := transcript.Write(r); err != nil {
				return errors.Wrap(err, "writing transcript")
			}
		}
	}

	if metricsPath != "" {
		return writeMetrics(reg, metricsPath)
	}
	return nil
}

func writeMetrics(g prometheus.Gatherer, path string) error {
	mfs, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating metrics file")
	}
	defer f.Close()
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return errors.Wrap(err, "writing metrics")
		}
	}
	return nil
}
