// Package logger builds configured slog.Logger instances for the
// experimentation engine.
//
// Production defaults emit JSON at INFO level for log aggregation systems;
// development setups switch to human-readable text at DEBUG level. Static
// attributes (service name, environment) are attached once at construction so
// every record carries them without per-call overhead.
//
// # Usage
//
//	log := logger.New(
//		logger.WithProduction("experiments"),
//	)
//	log.Info("breaker opened", slog.String("service", "recommendations"))
package logger
