// bench.go runs a round of key distribution for each entry in the cartesian
// product of a collection of different tuning parameters, e.g. channel noise
// and eavesdropper interception rate, and outputs a CSV of relevant
// statistics for each different combination, e.g. mismatch rate and final
// key length.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Glassar/dd2394-Security-Project/qkd"
	"github.com/Glassar/dd2394-Security-Project/qkd/report"
)

var (
	bits         = flag.IntSlice("bits", []int{4096}, "The number of trials to exchange per run.")
	divisor      = flag.IntSlice("divisor", []int{qkd.DefaultSampleDivisor}, "The sifted key length over the spot-check sample size.")
	blockSize    = flag.IntSlice("blockSize", []int{qkd.DefaultCascadeInitialBlockSize}, "The initial Cascade block size.")
	rounds       = flag.IntSlice("rounds", []int{qkd.DefaultCascadeRounds}, "The number of Cascade rounds.")
	depolarizing = flag.Float64Slice("depolarizing", []float64{0}, "The probability that a measured qubit is depolarized.")
	readout      = flag.Float64Slice("readout", []float64{0}, "The probability that a measurement reads out the wrong bit.")
	interception = flag.Float64Slice("interception", []float64{0}, "The fraction of trials an eavesdropper measures. Zero removes her.")
	threshold    = flag.Float64Slice("threshold", []float64{qkd.DefaultRiskThreshold}, "The mismatch rate at which risk saturates.")

	protocol      = flag.String("protocol", string(qkd.BB84), "bb84 or e91.")
	amplification = flag.String("amplification", qkd.MethodHash, "The privacy amplification method, hash or toeplitz.")
	seed          = flag.Int64("seed", 42, "The RNG seed of every run.")
	transcript    = flag.String("transcript", "", "If set, append a binary report of every run to this file.")
)

var (
	inputs  = []string{"bits", "divisor", "blockSize", "rounds", "depolarizing", "readout", "interception", "threshold"}
	columns = []string{"Bits", "Divisor", "BlockSize", "Rounds", "Depolarizing", "Readout", "Interception",
		"Threshold", "Sifted", "MismatchRate", "Risk", "CHSH", "Parities", "Residual", "KeyBits", "KeysAgree",
		"Succeeded"}
)

// An Experiment packages together the result of benchmarking a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	Bits, Divisor           int
	BlockSize, Rounds       int
	Depolarizing, Readout   float64
	Interception, Threshold float64

	// Fields corresponding to experiment results
	Sifted       int
	MismatchRate float64
	Risk         float64
	CHSH         float64
	Parities     int
	Residual     int
	KeyBits      int
	KeysAgree    bool
	Succeeded    bool
}

func main() {
	flag.Parse()
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var w *report.Writer
	if *transcript != "" {
		f, err := os.OpenFile(*transcript, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Fatal("opening transcript", zap.Error(err))
		}
		defer f.Close()
		w = report.NewWriter(f)
	}

	fmt.Println(header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	var args [][]interface{}
	for _, inp := range inputs {
		args = append(args, lookupInput(logger, inp))
	}
	applyCartesian(func(args []interface{}) {
		exp := &Experiment{
			Bits:         args[inpIndex("bits")].(int),
			Divisor:      args[inpIndex("divisor")].(int),
			BlockSize:    args[inpIndex("blockSize")].(int),
			Rounds:       args[inpIndex("rounds")].(int),
			Depolarizing: args[inpIndex("depolarizing")].(float64),
			Readout:      args[inpIndex("readout")].(float64),
			Interception: args[inpIndex("interception")].(float64),
			Threshold:    args[inpIndex("threshold")].(float64),
		}
		res, err := bench(exp)
		if err != nil {
			logger.Warn("benching", zap.Any("experiment", exp), zap.Error(err))
		}
		if w != nil && res != nil {
			if err := w.Write(report.FromResult(*res)); err != nil {
				logger.Fatal("writing transcript", zap.Error(err))
			}
		}
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			logger.Fatal("BUG: could not fill in line template", zap.Error(err))
		}
	}, args)
}

func inpIndex(v string) int {
	for i, inp := range inputs {
		if inp == v {
			return i
		}
	}
	return -1
}

func (exp *Experiment) config() qkd.Config {
	cfg := qkd.DefaultConfig()
	cfg.Protocol = qkd.Protocol(*protocol)
	cfg.Seed = *seed
	cfg.Amplification.Method = *amplification
	cfg.NumberOfBits = exp.Bits
	cfg.SampleDivisor = exp.Divisor
	cfg.CascadeInitialBlockSize = exp.BlockSize
	cfg.CascadeRounds = exp.Rounds
	cfg.NoiseEnabled = exp.Depolarizing > 0 || exp.Readout > 0
	cfg.Noise = qkd.NoiseConfig{Depolarizing: exp.Depolarizing, Readout: exp.Readout}
	cfg.EavesdropperPresent = exp.Interception > 0
	cfg.EavesdropperInterceptionRate = exp.Interception
	cfg.RiskThreshold = exp.Threshold
	return cfg
}

// bench runs exp, filling in its results. The returned Result is nil iff
// the pipeline could not be built.
func bench(exp *Experiment) (*qkd.Result, error) {
	p, err := qkd.NewPipeline(qkd.PipelineOpts{Config: exp.config()})
	if err != nil {
		return nil, err
	}
	res, err := p.Run(context.Background())
	exp.Sifted = res.Stats.BitsSifted
	exp.MismatchRate = res.Estimate.Rate
	exp.Risk = res.Risk
	if res.CHSH != nil {
		exp.CHSH = res.CHSH.S
	}
	exp.Parities = res.Stats.ParitiesDisclosed
	exp.Residual = res.Stats.ResidualMismatches
	exp.KeyBits = res.Stats.BitsFinal
	exp.KeysAgree = res.KeysAgree()
	exp.Succeeded = err == nil
	return &res, err
}

func header() string {
	return strings.Join(columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

func lookupInput(logger *zap.Logger, name string) []interface{} {
	var r []interface{}
	if v, err := flag.CommandLine.GetIntSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetFloat64Slice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else {
		logger.Fatal("unknown type for input", zap.String("input", name))
	}
	return r
}

func applyCartesian(f func([]interface{}), args [][]interface{}) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]interface{}, len(args))
		r := make([][]interface{}, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]interface{}, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
