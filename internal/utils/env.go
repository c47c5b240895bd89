package utils

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadEnv loads the given dotenv files (".env" when none are given). Missing
// files are skipped; variables already present in the environment win.
func LoadEnv(logger *zap.Logger, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	loaded := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			logger.Warn("Failed to load ENV file", zap.String("file", f), zap.Error(err))
			continue
		}
		loaded = append(loaded, f)
	}

	if len(loaded) == 0 {
		logger.Warn("ENV file not found, using defaults")
		return
	}
	logger.Info("ENV files loaded", zap.Strings("files", loaded))
}
