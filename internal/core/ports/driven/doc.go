// Package driven defines interfaces for external dependencies that the
// core services depend on. These are the "driven" ports in hexagonal
// architecture terminology - the application drives them.
//
// Implementations live in internal/adapters/driven and internal/connectors.
package driven
