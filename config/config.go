// Package config loads the command line configuration: decoder options,
// output format and logging. A file supplied by the user is laid over the
// expanded embedded template, then sanitized and validated.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	validator "github.com/go-playground/validator/v10"
	"github.com/rupor-github/gencfg"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	fx "github.com/gofhir/fhirxml"
	"github.com/gofhir/fhirxml/pkg/logger"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	DecoderConfig struct {
		FHIRVersion         string `yaml:"fhir_version" validate:"required,oneof=R4"`
		Strict              bool   `yaml:"strict"`
		Validate            bool   `yaml:"validate"`
		MaxDepth            int    `yaml:"max_depth" validate:"gte=0"`
		Workers             int    `yaml:"workers" validate:"gte=0,lte=1024"`
		ExpressionCacheSize int    `yaml:"expression_cache_size" validate:"gte=1"`
	}

	OutputConfig struct {
		Format string `yaml:"format" validate:"oneof=json text"`
		Pretty bool   `yaml:"pretty"`
	}

	LoggingConfig struct {
		Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
		Destination string `yaml:"destination,omitempty" validate:"omitempty,filepath"`
		Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
	}

	Config struct {
		Version int           `yaml:"version" validate:"eq=1"`
		Decoder DecoderConfig `yaml:"decoder"`
		Output  OutputConfig  `yaml:"output"`
		Logging LoggingConfig `yaml:"logging"`
	}
)

// crossChecks holds rules spanning several fields.
func crossChecks(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	if cfg.Output.Pretty && cfg.Output.Format != "json" {
		sl.ReportError(cfg.Output.Pretty, "Pretty", "pretty", "json_only", "")
	}
	if cfg.Logging.Mode == "append" && cfg.Logging.Destination == "" {
		sl.ReportError(cfg.Logging.Mode, "Mode", "mode", "requires_destination", "")
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// Unknown keys are errors, which yaml.Unmarshal would silently accept.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(crossChecks)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration expands the embedded template and, when path is not
// empty, overlays the file found there. The result is validated.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, true)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns the expanded default configuration.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

// Dump renders cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// Version returns the configured FHIR version.
func (c *DecoderConfig) Version() fx.FHIRVersion {
	return fx.FHIRVersion(c.FHIRVersion)
}

// Options converts the decoder section into library options. Logger and
// metrics are supplied by the caller. Zero workers keeps the library default.
func (c *DecoderConfig) Options(log *zap.Logger, metrics *fx.Metrics) []fx.Option {
	opts := []fx.Option{
		fx.WithStrictUnknownElements(c.Strict),
		fx.WithBuilderValidation(c.Validate),
		fx.WithMaxDepth(c.MaxDepth),
		fx.WithExpressionCacheSize(c.ExpressionCacheSize),
		fx.WithLogger(log),
		fx.WithMetrics(metrics),
	}
	if c.Workers > 0 {
		opts = append(opts, fx.WithWorkerCount(c.Workers))
	}
	return opts
}

// Prepare builds the logger described by the logging section.
func (c *LoggingConfig) Prepare() (*zap.Logger, func(), error) {
	return logger.New(logger.Config{
		Level:       c.Level,
		Destination: c.Destination,
		Append:      c.Mode == "append",
	})
}
