// Package database provides connection and session management, versioned
// migrations, model registration, configuration, logging, health checks, and
// store error classification built on top of Bun.
package database
