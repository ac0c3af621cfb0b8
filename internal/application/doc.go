// Package application wires the optimizer, batch service, metrics, handlers
// and router into an HTTP server, keeping the main package focused on CLI
// parsing and orchestration.
package application
