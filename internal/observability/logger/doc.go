// Package logger provides a singleton Zap logger with context-based scoping.
//
// Initialize once in main:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
// In handlers and services, pull the request-scoped logger from the context:
//
//	log := logger.From(ctx)
//	log.Info("user resolved", logger.UserID(id))
//
// "dev" builds a colorized console encoder, "prod" builds JSON.
package logger
