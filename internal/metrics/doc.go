// Package metrics turns the agent's /metrics text into display rows.
//
// The agent exposes one sample per line in the form "<name> <value>", with
// "#" lines carrying comments (Prometheus HELP/TYPE lines). Only metrics whose
// name ends in an allowed suffix are shown; by default that is "f"
// (temperature, Fahrenheit) and "h" (relative humidity). Celsius ("c") is
// excluded by default and can be re-enabled in config.
//
// Parsing and formatting are separate steps: ParseSample yields a typed value
// or a *ParseError, FormatValue renders it with exactly two decimals. What
// happens to malformed lines is decided by a ParsePolicy.
package metrics
