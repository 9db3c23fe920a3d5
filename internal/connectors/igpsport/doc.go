// Package igpsport implements the source platform client for the
// iGPSport web API: login, activity listing, activity detail and FIT
// file download.
package igpsport
