// Package domain contains the core business entities for velosync:
// activities, time intervals, sync candidates and the run configuration.
// It has no dependencies on adapters or external services.
package domain
