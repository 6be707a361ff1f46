package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	host       string
	exportPath string
	strict     bool
	logOutput  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithAnkiHost sets the control endpoint, e.g. localhost:8765.
func WithAnkiHost(host string) Option {
	return func(a *application) {
		a.host = host
	}
}

// WithExportPath sets where the application writes the exported package.
func WithExportPath(path string) Option {
	return func(a *application) {
		a.exportPath = path
	}
}

// WithStrict makes rejected notes and failed decks fail the run.
func WithStrict(strict bool) Option {
	return func(a *application) {
		a.strict = strict
	}
}

// WithLogOutput sets the log destination. Defaults to stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}
