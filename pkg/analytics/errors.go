package analytics

import "errors"

var (
	// ErrSinkClosed indicates an append to a sink that has been shut down.
	ErrSinkClosed = errors.New("analytics sink is closed")

	// ErrAppendFailed indicates that the backing store rejected the event.
	ErrAppendFailed = errors.New("failed to append analytics event")

	// ErrFailedToOpenDBConnection indicates that the Postgres pool could not
	// be established.
	ErrFailedToOpenDBConnection = errors.New("failed to open database connection")

	// ErrFailedToParseDBConfig indicates an invalid Postgres connection
	// string.
	ErrFailedToParseDBConfig = errors.New("failed to parse database config")

	// ErrFailedToApplyMigrations indicates that schema migrations failed.
	ErrFailedToApplyMigrations = errors.New("failed to apply migrations")

	// ErrOpenSearchConnectionFailed indicates that the OpenSearch client
	// could not be created or reached.
	ErrOpenSearchConnectionFailed = errors.New("failed to connect to opensearch")
)
