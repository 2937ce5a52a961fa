package xml2abx

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rhythmcache/xml2abx/internal/whitespace"
	"github.com/rhythmcache/xml2abx/pkg/xmlstream"
	"github.com/rhythmcache/xml2abx/pkg/xmltext"
)

const (
	defaultXMLMaxDepth     = 1024
	defaultXMLMaxAttrs     = 1024
	defaultXMLMaxTokenSize = 4 << 20
)

// NewOptions returns a default, valid options value.
func NewOptions() Options {
	return Options{}
}

// Validate validates option values.
func (o Options) Validate() error {
	_, err := o.withDefaults()
	return err
}

// PreserveWhitespace reports whether whitespace-only text is kept.
func (o Options) PreserveWhitespace() bool {
	return !o.collapseWhitespace
}

// WithPreserveWhitespace controls whether whitespace-only text is written as
// ignorable whitespace (true, the default) or dropped with the rest trimmed.
func (o Options) WithPreserveWhitespace(value bool) Options {
	o.collapseWhitespace = !value
	return o
}

// WithWarner sets the sink for unsupported-feature warnings (nil discards).
func (o Options) WithWarner(value Warner) Options {
	o.warner = value
	return o
}

// WithLogger sets the logger used for conversion diagnostics (nil disables).
func (o Options) WithLogger(value *zap.Logger) Options {
	o.logger = value
	return o
}

// WithResolveEntities controls whether entity references in text are expanded
// instead of being written as entity reference tokens.
func (o Options) WithResolveEntities(value bool) Options {
	o.resolveEntities = value
	return o
}

// WithStrict enables strict XML declaration and document structure checks.
func (o Options) WithStrict(value bool) Options {
	o.strict = value
	return o
}

// WithMaxDepth sets the XML max depth limit (0 uses default).
func (o Options) WithMaxDepth(value int) Options {
	o.maxDepth = intOption{value: value, set: true}
	return o
}

// WithMaxAttrs sets the XML max attributes limit (0 uses default).
func (o Options) WithMaxAttrs(value int) Options {
	o.maxAttrs = intOption{value: value, set: true}
	return o
}

// WithMaxTokenSize sets the XML max token size limit (0 uses default).
func (o Options) WithMaxTokenSize(value int) Options {
	o.maxTokenSize = intOption{value: value, set: true}
	return o
}

func (o Options) withDefaults() (resolvedOptions, error) {
	maxDepth := o.maxDepth.resolved()
	maxAttrs := o.maxAttrs.resolved()
	tokenSize := o.maxTokenSize.resolved()
	if maxDepth < 0 {
		return resolvedOptions{}, fmt.Errorf("xml max depth must be >= 0")
	}
	if maxAttrs < 0 {
		return resolvedOptions{}, fmt.Errorf("xml max attrs must be >= 0")
	}
	if tokenSize < 0 {
		return resolvedOptions{}, fmt.Errorf("xml max token size must be >= 0")
	}
	out := resolvedOptions{
		warner:    o.warner,
		logger:    o.logger,
		wsMode:    whitespace.FromPreserve(o.PreserveWhitespace()),
		maxDepth:  defaultXMLLimit(maxDepth, defaultXMLMaxDepth),
		maxAttrs:  defaultXMLLimit(maxAttrs, defaultXMLMaxAttrs),
		tokenSize: defaultXMLLimit(tokenSize, defaultXMLMaxTokenSize),
	}
	if out.warner == nil {
		out.warner = DiscardWarnings
	}
	if out.logger == nil {
		out.logger = zap.NewNop()
	}
	out.xmlOpts = []xmlstream.Option{
		xmltext.MaxDepth(out.maxDepth),
		xmltext.MaxAttrs(out.maxAttrs),
		xmltext.MaxTokenSize(out.tokenSize),
		xmltext.ResolveEntities(o.resolveEntities),
		xmltext.TrimText(!out.wsMode.Preserving()),
		xmltext.Strict(o.strict),
	}
	return out, nil
}

func defaultXMLLimit(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
