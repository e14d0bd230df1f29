package repository

import (
	"github.com/burns-20/bwrank/internal/domain/translate"
	"github.com/burns-20/bwrank/pkg/logger"
)

// Option configures a store.
type Option func(*options)

type options struct {
	translator translate.Translator
	logger     logger.Logger
}

func newOptions(opts []Option) options {
	o := options{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTranslator sets the race and server tables applied on load.
func WithTranslator(tr translate.Translator) Option {
	return func(o *options) {
		o.translator = tr
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
