// Package config defines the project file structures and includes functions
// for loading and parsing the project file and deriving the pricing inputs
// from it.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iwvelando/construction-pricing/pkg/constants"
	"github.com/iwvelando/construction-pricing/pkg/plan"
	"github.com/iwvelando/construction-pricing/pkg/pricing"
	"github.com/iwvelando/construction-pricing/pkg/validation"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override project file keys,
// e.g. PRICING_PROJECT_NETPROFITMARGIN.
const EnvPrefix = "PRICING"

// Configuration holds a project and how to present its report.
type Configuration struct {
	Project   Project
	Financing Financing
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// Project holds the pricing parameters of a construction project. The plan
// is either inline or read from PlanFile, resolved relative to the project
// file. Component names in IndirectCosts and Taxes are lower-cased on load.
type Project struct {
	Name     string
	Client   string
	PlanFile string
	Plan     *plan.Plan
	// DirectCost overrides the plan's task costs when positive.
	DirectCost      float64
	NetProfitMargin float64
	IndirectCosts   map[string]string
	Taxes           map[string]string
}

// Financing holds the parameters of the investment scenario matrix.
type Financing struct {
	// AnnualInterestRate is kept as typed; invalid text falls back to the
	// default rate.
	AnnualInterestRate string
	// Levels are the financed shares of the direct cost, in percent.
	Levels []float64
	// Scenarios are the net profit margins, in percent.
	Scenarios []float64
}

// DefaultIndirectCosts returns the indirect cost components of a new project.
func DefaultIndirectCosts() map[string]string {
	return map[string]string{
		"admin":     "2",
		"insurance": "1",
		"guarantee": "0.5",
		"risk":      "1.5",
	}
}

// DefaultTaxes returns the tax components of a new project.
func DefaultTaxes() map[string]string {
	return map[string]string{
		"irpj":   "1.2",
		"csll":   "1.08",
		"pis":    "0.65",
		"cofins": "3",
		"iss":    "5",
		"inss":   "4.5",
	}
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// project there, reading the plan file when one is referenced.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	conf, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	if err := conf.ResolvePlan(filepath.Dir(configPath)); err != nil {
		return nil, err
	}
	return conf, nil
}

// LoadConfigurationFromReader loads a YAML-formatted project from r. Plan
// files are not resolved; callers decide whether PlanFile is acceptable.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error parsing config, %w", err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("project.netProfitMargin", constants.DefaultNetProfitMargin)
	return v
}

func unmarshal(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if configuration.Project.IndirectCosts == nil {
		configuration.Project.IndirectCosts = DefaultIndirectCosts()
	}
	if configuration.Project.Taxes == nil {
		configuration.Project.Taxes = DefaultTaxes()
	}
	return &configuration, nil
}

// ResolvePlan reads and decodes the plan file, relative to baseDir, when the
// project references one. An inline plan takes precedence.
func (c *Configuration) ResolvePlan(baseDir string) error {
	if c.Project.Plan != nil || c.Project.PlanFile == "" {
		return nil
	}

	path := c.Project.PlanFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading plan file %s: %w", path, err)
	}

	p, _, err := plan.Decode(raw)
	if err != nil {
		return fmt.Errorf("error decoding plan file %s: %w", path, err)
	}
	c.Project.Plan = p
	return nil
}

// DirectCost returns the configured direct cost or, when none is set, the
// sum of the plan's task costs.
func (c *Configuration) DirectCost() float64 {
	if c.Project.DirectCost > 0 {
		return c.Project.DirectCost
	}
	return c.Project.Plan.DirectCost()
}

// DurationMonths returns the project duration derived from the plan dates.
func (c *Configuration) DurationMonths() float64 {
	return c.Project.Plan.DurationMonths()
}

// PricingInput builds the single-scenario pricing input.
func (c *Configuration) PricingInput() pricing.Input {
	return pricing.Input{
		DirectCost:             c.DirectCost(),
		IndirectCosts:          c.Project.IndirectCosts,
		Taxes:                  c.Project.Taxes,
		NetProfitMarginPercent: c.Project.NetProfitMargin,
	}
}

// MatrixInput builds the investment scenario matrix input. Missing levels
// and scenarios keep the defaults.
func (c *Configuration) MatrixInput() pricing.MatrixInput {
	in := pricing.MatrixInput{
		DirectCost:                c.DirectCost(),
		IndirectCosts:             c.Project.IndirectCosts,
		Taxes:                     c.Project.Taxes,
		AnnualInterestRatePercent: pricing.ParseInterestRate(c.Financing.AnnualInterestRate),
		ProjectDurationMonths:     c.DurationMonths(),
	}

	for _, margin := range c.Financing.Scenarios {
		in.ProfitScenarios = append(in.ProfitScenarios, pricing.ProfitScenario{
			Label:         fmt.Sprintf("Cenário (%s%%)", formatNumber(margin)),
			MarginPercent: margin,
		})
	}
	for _, level := range c.Financing.Levels {
		in.FinancingLevels = append(in.FinancingLevels, pricing.FinancingLevel{
			Label:    fmt.Sprintf("Análise com %s%% de Financiamento do Custo Direto", formatNumber(level)),
			Fraction: level / constants.PercentageMultiplier,
		})
	}
	return in
}

// ValidateConfiguration performs general validation of the project and
// returns warnings. Warnings never prevent the project from being priced.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.DirectCost() <= 0 {
		warnings = append(warnings, "project has no direct cost; every value will be zero")
	}
	if w := validation.ValidateNetProfitMargin(c.Project.NetProfitMargin); w != "" {
		warnings = append(warnings, w)
	}
	warnings = append(warnings, validation.ValidatePercentComponents("indirect cost", c.Project.IndirectCosts)...)
	warnings = append(warnings, validation.ValidatePercentComponents("tax", c.Project.Taxes)...)

	totalTaxes := pricing.SumPercents(c.Project.Taxes)
	if w := validation.ValidatePriceability(totalTaxes, c.Project.NetProfitMargin/constants.PercentageMultiplier); w != "" {
		warnings = append(warnings, w)
	}
	for _, margin := range c.Financing.Scenarios {
		if w := validation.ValidatePriceability(totalTaxes, margin/constants.PercentageMultiplier); w != "" {
			warnings = append(warnings, fmt.Sprintf("scenario %s%%: %s", formatNumber(margin), w))
		}
	}

	if w := validation.ValidateInterestRate(c.Financing.AnnualInterestRate); w != "" {
		warnings = append(warnings, w)
	}
	for _, level := range c.Financing.Levels {
		if level < 0 || level > constants.PercentageMultiplier {
			warnings = append(warnings, fmt.Sprintf("financing level %s%% is outside 0%%-100%%", formatNumber(level)))
		}
	}

	for _, w := range c.Project.Plan.Validate() {
		warnings = append(warnings, "plan: "+w)
	}
	return warnings
}

// formatNumber prints a percentage without trailing zeros and with a
// decimal comma.
func formatNumber(value float64) string {
	return strings.Replace(strconv.FormatFloat(value, 'f', -1, 64), ".", ",", 1)
}
