package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/greenhouse-agent/gha/internal/errors"
)

// DefaultSuffixes is the allow-list used when none is configured.
var DefaultSuffixes = []string{"f", "h"}

// ParsePolicy decides what happens to a metric line whose value can't be parsed.
type ParsePolicy string

const (
	// PolicyDrop omits malformed rows. The error is still reported.
	PolicyDrop ParsePolicy = "drop"
	// PolicyDefault keeps malformed rows with the parser's default value.
	PolicyDefault ParsePolicy = "default"
	// PolicyFlag keeps malformed rows with Value "NaN" and Err set.
	PolicyFlag ParsePolicy = "flag"
)

// Policies lists every accepted policy, for validation and help text.
var Policies = []ParsePolicy{PolicyDrop, PolicyDefault, PolicyFlag}

// Valid reports whether p is a known policy.
func (p ParsePolicy) Valid() bool {
	for _, known := range Policies {
		if p == known {
			return true
		}
	}
	return false
}

// FlaggedValue is what a flagged row displays in place of a number.
const FlaggedValue = "NaN"

// Row is one display row.
type Row struct {
	Name  string  `json:"name"`
	Value string  `json:"value"`
	Raw   float64 `json:"-"`
	Err   error   `json:"-"`
}

// Sample is a successfully parsed metric line.
type Sample struct {
	Name  string
	Value float64
}

// ParseError describes a metric line that couldn't be turned into a number.
type ParseError struct {
	Line  int // 1-based line number in the raw text
	Text  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parser filters and formats metric text. The zero value is not useful; use NewParser.
type Parser struct {
	Suffixes []string
	Policy   ParsePolicy
	Default  float64
}

// Option configures a Parser.
type Option func(*Parser)

// WithSuffixes replaces the suffix allow-list.
func WithSuffixes(suffixes ...string) Option {
	return func(p *Parser) {
		p.Suffixes = append([]string(nil), suffixes...)
	}
}

// WithPolicy sets the malformed-line policy.
func WithPolicy(policy ParsePolicy) Option {
	return func(p *Parser) {
		p.Policy = policy
	}
}

// WithDefault sets the value used by PolicyDefault.
func WithDefault(v float64) Option {
	return func(p *Parser) {
		p.Default = v
	}
}

// NewParser returns a parser with the default suffixes and PolicyDrop,
// adjusted by opts.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		Suffixes: append([]string(nil), DefaultSuffixes...),
		Policy:   PolicyDrop,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse returns the display rows for raw, in input order.
func (p *Parser) Parse(raw string) []Row {
	rows, _ := p.ParseWithErrors(raw)
	return rows
}

// ParseWithErrors returns the display rows for raw along with every malformed
// line that matched the suffix filter, whatever the policy did with it.
func (p *Parser) ParseWithErrors(raw string) ([]Row, []*ParseError) {
	var rows []Row
	var errs []*ParseError

	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name := strings.Fields(line)[0]
		if !p.Allowed(name) {
			continue
		}

		sample, err := ParseSample(line)
		if err != nil {
			perr := &ParseError{Line: i + 1, Text: line, Cause: err}
			errs = append(errs, perr)

			switch p.Policy {
			case PolicyDefault:
				rows = append(rows, Row{Name: name, Value: FormatValue(p.Default), Raw: p.Default})
			case PolicyFlag:
				rows = append(rows, Row{Name: name, Value: FlaggedValue, Raw: math.NaN(), Err: perr})
			}
			continue
		}

		rows = append(rows, Row{Name: sample.Name, Value: FormatValue(sample.Value), Raw: sample.Value})
	}

	return rows, errs
}

// Allowed reports whether a metric name ends in one of the allowed suffixes.
func (p *Parser) Allowed(name string) bool {
	if name == "" {
		return false
	}
	for _, suffix := range p.Suffixes {
		if suffix != "" && strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// ParseSample parses a trimmed "<name> <value>" line. Extra fields (such as a
// Prometheus timestamp) are ignored. Non-finite values are rejected since
// they have no two-decimal rendering.
func ParseSample(line string) (Sample, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Sample{}, fmt.Errorf("missing value")
	}

	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Sample{}, fmt.Errorf("value %q is not a number", fields[1])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Sample{}, fmt.Errorf("value %q is not finite", fields[1])
	}

	return Sample{Name: fields[0], Value: v}, nil
}

// FormatValue renders v with exactly two decimals, rounding halves away from
// zero (72.345 -> "72.35").
func FormatValue(v float64) string {
	// Past 2^53 every float64 is an integer, and v*100 could overflow.
	if math.Abs(v) >= 1<<53 {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	rounded := math.Round(v*100) / 100
	if rounded == 0 {
		// avoid "-0.00"
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', 2, 64)
}

// AsError folds parse errors into a single structured error, or nil.
func AsError(errs []*ParseError) error {
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	msg := fmt.Sprintf("%d malformed metric line", len(errs))
	if len(errs) != 1 {
		msg += "s"
	}
	return errors.WrapWithCode(first, errors.ErrParse, msg,
		"Lines must look like '<name> <number>'. Check the agent's /metrics output.")
}
