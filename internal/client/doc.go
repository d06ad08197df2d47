// Package client talks to the greenhouse agent's REST API.
//
// Reads (switch list, metrics text) replace a cached copy held in a Store.
// Mutations (pin output, auto override) are always followed by a re-read of
// the switch list, whether or not the mutation succeeded, so callers only
// ever render state the agent has confirmed. Failures are returned and also
// raised once through a Notifier.
package client
