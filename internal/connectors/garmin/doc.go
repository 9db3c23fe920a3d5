// Package garmin implements the destination platform client for Garmin
// Connect: SSO authentication with a cached session, recent-activity
// listing and FIT file upload.
package garmin
