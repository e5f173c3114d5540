package qkd

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/Glassar/dd2394-Security-Project/qkd/photon"
)

// A PipelineOpts packages together the arguments necessary to construct a
// new Pipeline. Only Config is required.
type PipelineOpts struct {
	// Config selects the protocol and tunes every stage. It must pass
	// Validate.
	Config Config

	// Simulator measures trials. Defaults to a photon.Simulated using
	// Config.Noise.
	Simulator photon.Simulator

	// Rand provides every random choice of the run. This may use pRNG for
	// experimental and/or testing, but for real key material this must be
	// truly random. Defaults to a source seeded with Config.Seed.
	Rand *rand.Rand

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics is optional.
	Metrics *Metrics
}

// A Pipeline runs key distribution end to end over a simulated channel.
// A Pipeline is not safe for concurrent use, since runs share its Rand.
type Pipeline struct {
	cfg        Config
	sim        photon.Simulator
	rand       *rand.Rand
	logger     *zap.Logger
	metrics    *Metrics
	reconciler reconciler
	amplifier  Amplifier

	trialsFunc func() []photon.Trial
}

// NewPipeline returns a new Pipeline, configured in accordance with opts, or
// an error if the options are nonsensical.
func NewPipeline(opts PipelineOpts) (*Pipeline, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	amp, err := NewAmplifier(cfg.Amplification)
	if err != nil {
		return nil, &ConfigError{Field: "amplification", Err: err}
	}
	sim := opts.Simulator
	if sim == nil {
		sim = photon.NewSimulated(photon.NoiseModel{
			Depolarizing: cfg.Noise.Depolarizing,
			Readout:      cfg.Noise.Readout,
		})
	}
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(uint64(cfg.Seed)))
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:     cfg,
		sim:     sim,
		rand:    r,
		logger:  logger.With(zap.String("protocol", string(cfg.Protocol))),
		metrics: opts.Metrics,
		reconciler: Cascade{
			InitialBlockSize: cfg.CascadeInitialBlockSize,
			Rounds:           cfg.CascadeRounds,
		},
		amplifier: amp,
	}, nil
}

// Run performs one key distribution. When the risk score saturates and the
// pipeline is configured to abort, Run returns the partial Result along with
// an error matching ErrRiskSaturated.
func (p *Pipeline) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	defer func() {
		p.metrics.observe(res, err, time.Since(start))
	}()
	res.Protocol = p.cfg.Protocol

	trials := p.prepare()
	res.Stats.BitsSent = len(trials)
	outcomes, err := photon.MeasureAll(ctx, p.sim, trials, p.cfg.Workers)
	if err != nil {
		return res, errors.Wrap(err, "measuring trials")
	}

	sifted, buckets, err := Sift(trials, outcomes)
	if err != nil {
		return res, errors.Wrap(err, "sifting")
	}
	res.Sifted = sifted
	res.Stats.BitsSifted = sifted.Size()
	if p.cfg.Protocol == E91 {
		chsh := buckets.Estimate()
		res.CHSH = &chsh
		p.logger.Debug("estimated CHSH value",
			zap.Float64("s", chsh.S),
			zap.Bool("violates", chsh.Violates()),
			zap.Int("empty_buckets", chsh.EmptyBuckets))
	}

	est, err := SpotCheck(sifted, SampleSize(sifted.Size(), p.cfg.SampleDivisor), p.rand)
	if err != nil {
		return res, errors.Wrap(err, "estimating mismatch rate")
	}
	res.Estimate = est
	res.Stats.BitsSampled = len(est.Sample.Positions)
	res.Stats.BitsRetained = est.Retained.Size()
	res.Stats.SampleMismatches = est.Mismatches

	res.Risk, err = Risk(est.Rate, p.cfg.RiskThreshold)
	if err != nil {
		return res, err
	}
	if res.Risk >= 1 {
		p.logger.Warn("mismatch rate saturates risk",
			zap.Float64("mismatch_rate", est.Rate),
			zap.Float64("threshold", p.cfg.RiskThreshold))
		if p.cfg.AbortOnSaturatedRisk {
			res.Aborted = true
			return res, errors.Wrapf(ErrRiskSaturated, "mismatch rate %.4f against threshold %.4f", est.Rate, p.cfg.RiskThreshold)
		}
	}

	rec, err := p.reconciler.Reconcile(est.Retained.Sender, est.Retained.Receiver)
	if err != nil {
		return res, errors.Wrap(err, "reconciling")
	}
	res.Reconciled = rec
	res.Stats.ParitiesDisclosed = rec.ParitiesDisclosed
	res.Stats.ResidualMismatches = rec.ResidualMismatches
	if rec.ResidualMismatches > 0 {
		p.logger.Debug("errors survived reconciliation", zap.Int("residual_mismatches", rec.ResidualMismatches))
	}

	leak := Leakage{
		ErrorRate:         est.Rate,
		SampleSize:        len(est.Sample.Positions),
		ParitiesDisclosed: rec.ParitiesDisclosed,
	}
	if res.SenderKey, err = p.amplifier.Amplify(est.Retained.Sender, leak); err != nil {
		return res, errors.Wrap(err, "amplifying sender key")
	}
	if res.FinalKey, err = p.amplifier.Amplify(rec.Key, leak); err != nil {
		return res, errors.Wrap(err, "amplifying receiver key")
	}
	res.Stats.BitsFinal = res.FinalKey.Size()
	res.Completed = true

	p.logger.Info("key distribution complete",
		zap.Int("bits_sent", res.Stats.BitsSent),
		zap.Int("bits_sifted", res.Stats.BitsSifted),
		zap.Int("bits_final", res.Stats.BitsFinal),
		zap.Float64("mismatch_rate", est.Rate),
		zap.Float64("risk", res.Risk),
		zap.Bool("keys_agree", res.KeysAgree()))
	return res, nil
}

func (p *Pipeline) prepare() []photon.Trial {
	if p.trialsFunc != nil {
		return p.trialsFunc()
	}
	return prepareTrials(p.cfg, p.rand)
}
