package utils

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds a JSON production logger when ENV is prod, otherwise a
// colored development logger with debug output enabled.
func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENV") {
	case "prod", "production":
		return zap.NewProduction()
	default:
		return zap.NewDevelopment()
	}
}
