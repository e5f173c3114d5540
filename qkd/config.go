package qkd

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Glassar/dd2394-Security-Project/qkd/photon"
)

// A Protocol selects how trials are prepared.
type Protocol string

const (
	// BB84 is prepare-and-measure key distribution.
	BB84 Protocol = "bb84"
	// E91 is entanglement-based key distribution with a CHSH test.
	E91 Protocol = "e91"
)

// Privacy amplification methods.
const (
	MethodHash     = "hash"
	MethodToeplitz = "toeplitz"
)

// NoiseConfig parameterises the simulated channel's noise.
type NoiseConfig struct {
	Depolarizing float64 `yaml:"depolarizing" json:"depolarizing" validate:"min=0,max=1"`
	Readout      float64 `yaml:"readout" json:"readout" validate:"min=0,max=1"`
}

// AmplificationConfig selects and tunes privacy amplification.
type AmplificationConfig struct {
	// Method is "hash" (digest of the key) or "toeplitz" (seeded universal
	// hash whose output shrinks with the estimated leakage).
	Method string `yaml:"method" json:"method" validate:"oneof=hash toeplitz" jsonschema:"enum=hash,enum=toeplitz"`

	// Hash names the digest used by the hash method.
	Hash string `yaml:"hash" json:"hash" validate:"oneof=sha256 sha3-256 blake2b-256 md5" jsonschema:"enum=sha256,enum=sha3-256,enum=blake2b-256,enum=md5"`

	// ErrorSensitive truncates hash output as the mismatch rate grows.
	ErrorSensitive bool `yaml:"errorSensitive" json:"errorSensitive"`

	// Seed is the public seed both parties expand into the Toeplitz matrix.
	Seed string `yaml:"seed" json:"seed"`

	// EpsilonPrivacy is the tolerated distance from uniform of the final key
	// for the toeplitz method.
	EpsilonPrivacy float64 `yaml:"epsilonPrivacy" json:"epsilonPrivacy" validate:"gt=0,lt=1"`
}

// Config enumerates every option recognised by the pipeline.
type Config struct {
	Protocol Protocol `yaml:"protocol" json:"protocol" validate:"oneof=bb84 e91" jsonschema:"enum=bb84,enum=e91"`

	// NumberOfBits is the number of trials exchanged per run.
	NumberOfBits int `yaml:"numberOfBits" json:"numberOfBits" validate:"min=0" jsonschema:"minimum=0"`

	// SampleDivisor sets the spot-check size to sifted length / SampleDivisor.
	SampleDivisor int `yaml:"sampleDivisor" json:"sampleDivisor" validate:"min=1" jsonschema:"minimum=1"`

	// RiskThreshold is the mismatch rate at which risk saturates.
	RiskThreshold float64 `yaml:"riskThreshold" json:"riskThreshold" validate:"gt=0,lte=1" jsonschema:"exclusiveMinimum=0,maximum=1"`

	CascadeInitialBlockSize int `yaml:"cascadeInitialBlockSize" json:"cascadeInitialBlockSize" validate:"min=1" jsonschema:"minimum=1"`
	CascadeRounds           int `yaml:"cascadeRounds" json:"cascadeRounds" validate:"min=1" jsonschema:"minimum=1"`

	NoiseEnabled bool        `yaml:"noiseEnabled" json:"noiseEnabled"`
	Noise        NoiseConfig `yaml:"noise" json:"noise"`

	EavesdropperPresent          bool    `yaml:"eavesdropperPresent" json:"eavesdropperPresent"`
	EavesdropperInterceptionRate float64 `yaml:"eavesdropperInterceptionRate" json:"eavesdropperInterceptionRate" validate:"min=0,max=1" jsonschema:"minimum=0,maximum=1"`

	// AbortOnSaturatedRisk stops a run before reconciliation once the risk
	// score reaches 1.
	AbortOnSaturatedRisk bool `yaml:"abortOnSaturatedRisk" json:"abortOnSaturatedRisk"`

	// Workers bounds concurrent simulator calls. Zero uses GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers" validate:"min=0" jsonschema:"minimum=0"`

	// Seed seeds every random choice of a run.
	Seed int64 `yaml:"seed" json:"seed"`

	Amplification AmplificationConfig `yaml:"amplification" json:"amplification"`
}

// DefaultConfig returns a Config with every field at its default.
func DefaultConfig() Config {
	return Config{
		Protocol:                     BB84,
		NumberOfBits:                 DefaultNumberOfBits,
		SampleDivisor:                DefaultSampleDivisor,
		RiskThreshold:                DefaultRiskThreshold,
		CascadeInitialBlockSize:      DefaultCascadeInitialBlockSize,
		CascadeRounds:                DefaultCascadeRounds,
		Noise:                        NoiseConfig{Depolarizing: photon.DefaultNoise.Depolarizing, Readout: photon.DefaultNoise.Readout},
		EavesdropperInterceptionRate: 1,
		Amplification: AmplificationConfig{
			Method:         MethodHash,
			Hash:           "sha256",
			ErrorSensitive: true,
			Seed:           "qkd-toeplitz",
			EpsilonPrivacy: DefaultEpsilon,
		},
	}
}

// validate is shared since building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate returns a *ConfigError for the first option violating its
// constraints, or nil.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			return &ConfigError{Field: field, Err: errors.Errorf("%v violates %s=%s", fe.Value(), fe.Tag(), fe.Param())}
		}
		return &ConfigError{Field: field, Err: errors.Errorf("%v violates %s", fe.Value(), fe.Tag())}
	}
	return &ConfigError{Err: err}
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ConfigError{Err: errors.Wrap(err, "decoding yaml")}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file. See ParseConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	return ParseConfig(data)
}

// ConfigSchema returns a JSON Schema describing Config.
func ConfigSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshalling schema")
	}
	return b, nil
}
