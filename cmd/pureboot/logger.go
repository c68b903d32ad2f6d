package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
)

// getLogger returns a logger for the given level name ("debug" or "info",
// anything else falls back to info).
func getLogger(level string) logr.Logger {
	v := 0
	if strings.EqualFold(level, "debug") {
		v = 1
	}
	return defaultLogger(v)
}

// defaultLogger uses the slog logr implementation, trimming source paths
// to keep log lines readable and rendering the level as pureboot's own
// verbosity integer rather than slog's string names.
func defaultLogger(level int) logr.Logger {
	customAttr := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.SourceKey {
			ss, ok := a.Value.Any().(*slog.Source)
			if !ok || ss == nil {
				return a
			}

			p := strings.Split(ss.File, "/")
			var idx int
			for i, v := range p {
				if v == "pureboot" {
					if i+2 < len(p) {
						idx = i + 2
						break
					}
				}
				if v == "mod" {
					if i+1 < len(p) {
						idx = i + 1
						break
					}
				}
			}
			ss.File = filepath.Join(p[idx:]...)
			ss.File = fmt.Sprintf("%s:%d", ss.File, ss.Line)
			a.Value = slog.StringValue(ss.File)
			a.Key = "caller"
			return a
		}

		if a.Key == slog.LevelKey {
			b, ok := a.Value.Any().(slog.Level)
			if !ok {
				return a
			}
			a.Value = slog.StringValue(strconv.Itoa(int(b)))
			return a
		}

		return a
	}

	opts := &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.Level(-level),
		ReplaceAttr: customAttr,
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, opts))

	return logr.FromSlogHandler(log.Handler())
}
