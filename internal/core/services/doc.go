// Package services contains the core application logic: activity
// selection, transfer orchestration and the top-level sync run. Services
// depend only on the domain and on ports; concrete platform clients and
// stores are injected.
package services
