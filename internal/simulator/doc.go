// Package simulator is an in-memory greenhouse agent for development and tests.
//
// It serves the same REST contract as the real agent (switch list, Prometheus
// metrics text, pin output and auto-override endpoints) without touching
// GPIO. Sensor readings drift randomly on a ticker; switches only change when
// asked to over HTTP.
package simulator
