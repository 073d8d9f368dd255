package logging

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger.
// level accepts logrus level names; format is "text" or "json".
func Setup(out io.Writer, level, format string) error {
	parsed := log.InfoLevel
	if trimmed := strings.TrimSpace(level); trimmed != "" {
		lvl, errParse := log.ParseLevel(trimmed)
		if errParse != nil {
			return fmt.Errorf("logging: %w", errParse)
		}
		parsed = lvl
	}
	log.SetLevel(parsed)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("logging: unsupported format %q", format)
	}
	if out != nil {
		log.SetOutput(out)
	}
	return nil
}
