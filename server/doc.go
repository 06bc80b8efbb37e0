// Package server exposes the dialogue policy over HTTP: turn handling on
// /predict, session location seeding on /session/location and a health
// snapshot on /health.
package server
