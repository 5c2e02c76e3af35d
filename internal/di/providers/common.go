package providers

import (
	"fmt"
	"os"
	"time"

	"github.com/listenupapp/readlist/internal/config"
)

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second
)

func ensureDataDir(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}
