// Package application provides application initialization and dependency wiring.
// It builds the settings Store from the loaded configuration, ingests the
// settings directory and assembles the HTTP API and server, keeping the main
// package focused on CLI parsing and orchestration.
package application
