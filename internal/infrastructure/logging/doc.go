// Package logging provides structured logging for the school site API.
//
// It wraps the standard log/slog package so every component logs with the
// same default fields (service, version) and level filter.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "./logs/api.log"
//
// # Usage
//
//	logger, err := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting server", "port", 5000)
//
// Never log session tokens or passwords.
package logging
