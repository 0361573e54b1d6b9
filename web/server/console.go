package server

import (
	"fmt"
	"log"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// WebLogger implements core.Logger by writing render messages to the server log,
// prefixed with the render they belong to
type WebLogger struct {
	renderID string
	logger   *log.Logger
}

// NewWebLogger creates a new web logger for a specific render
func NewWebLogger(renderID string, logger *log.Logger) core.Logger {
	return &WebLogger{
		renderID: renderID,
		logger:   logger,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	if wl.logger == nil {
		return
	}
	message := strings.TrimSuffix(fmt.Sprintf(format, args...), "\n")
	wl.logger.Printf("[%s] %s", wl.renderID, message)
}
