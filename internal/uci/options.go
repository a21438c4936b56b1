package uci

import "go.uber.org/zap"

// Option configures an Engine.
type Option func(*options)

type options struct {
	settings map[string]string
	multiPV  int
	logger   *zap.Logger
}

func defaultOptions() options {
	return options{
		settings: map[string]string{},
		multiPV:  1,
		logger:   zap.NewNop(),
	}
}

// WithOption sends "setoption name <name> value <value>" during the
// handshake, e.g. WithOption("Hash", "128").
func WithOption(name, value string) Option {
	return func(o *options) {
		o.settings[name] = value
	}
}

// WithMultiPV reports the n best principal variations per search.
func WithMultiPV(n int) Option {
	return func(o *options) {
		o.multiPV = max(n, 1)
	}
}

// WithLogger sets the logger used for protocol traffic.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.Named("uci")
		}
	}
}
