package logger

import (
	"io"
	"log/slog"
)

// Format selects the handler New builds.
type Format int

const (
	// FormatText is slog's key=value text handler.
	FormatText Format = iota

	// FormatPretty is the colorized console output of the helpbot commands.
	FormatPretty

	// FormatJSON is one JSON object per record, for serve --json-logs and
	// --log-file.
	FormatJSON
)

// Option configures a Logger created with New.
type Option func(*config)

// WithDebug lowers the level to Debug, which is what --debug does.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithFormat picks the record format.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithWriter sends records to w. Several writers receive the same records.
// Commands that print answers on stdout log to os.Stderr instead.
func WithWriter(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}

// WithSource adds the calling file:line to each record.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}
