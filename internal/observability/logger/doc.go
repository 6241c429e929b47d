// Package logger provee un singleton de zap para todo el servicio.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Component("resolver"))
//	log.Info("account resolved", logger.Outcome("linked_existing"))
package logger
