package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

const defaultLogDir = "/var/log/shopcatalog"

// SetupLogging sends both application and gin output to stdout and an
// append-only file under cfg.LogDir. Caller closes the returned file on
// shutdown.
func SetupLogging(cfg Config, filename string) (io.Closer, error) {
	if filename == "" {
		filename = "app.log"
	}
	f, err := openLogFile(cfg.LogDir, filename)
	if err != nil {
		return nil, err
	}

	sink := io.MultiWriter(os.Stdout, f)
	log.SetOutput(sink)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	gin.DefaultWriter = sink
	gin.DefaultErrorWriter = sink

	return f, nil
}

func openLogFile(dir, filename string) (*os.File, error) {
	if dir == "" {
		dir = defaultLogDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, filename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}
