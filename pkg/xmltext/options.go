package xmltext

// Options holds decoder configuration values.
// The zero value means no overrides.
type Options struct {
	resolveEntities bool
	trimText        bool
	strict          bool
	maxDepth        int
	maxAttrs        int
	maxTokenSize    int
	bufferSize      int

	resolveEntitiesSet bool
	trimTextSet        bool
	strictSet          bool
	maxDepthSet        bool
	maxAttrsSet        bool
	maxTokenSizeSet    bool
	bufferSizeSet      bool
}

// JoinOptions combines multiple option sets into one in declaration order.
// Later options override earlier ones when set.
func JoinOptions(srcs ...Options) Options {
	var merged Options
	for _, src := range srcs {
		merged.merge(src)
	}
	return merged
}

func (opts *Options) merge(src Options) {
	if src.resolveEntitiesSet {
		opts.resolveEntities = src.resolveEntities
		opts.resolveEntitiesSet = true
	}
	if src.trimTextSet {
		opts.trimText = src.trimText
		opts.trimTextSet = true
	}
	if src.strictSet {
		opts.strict = src.strict
		opts.strictSet = true
	}
	if src.maxDepthSet {
		opts.maxDepth = src.maxDepth
		opts.maxDepthSet = true
	}
	if src.maxAttrsSet {
		opts.maxAttrs = src.maxAttrs
		opts.maxAttrsSet = true
	}
	if src.maxTokenSizeSet {
		opts.maxTokenSize = src.maxTokenSize
		opts.maxTokenSizeSet = true
	}
	if src.bufferSizeSet {
		opts.bufferSize = src.bufferSize
		opts.bufferSizeSet = true
	}
}

// ResolveEntities controls whether entity references in character data are
// expanded. When false, each reference is returned as a KindEntityRef token.
// Attribute values are always expanded.
func ResolveEntities(value bool) Options {
	return Options{resolveEntities: value, resolveEntitiesSet: true}
}

// TrimText trims leading and trailing whitespace from character data and
// drops character data that becomes empty.
func TrimText(value bool) Options {
	return Options{trimText: value, trimTextSet: true}
}

// MaxDepth limits element nesting depth.
func MaxDepth(value int) Options {
	return Options{maxDepth: value, maxDepthSet: true}
}

// MaxAttrs limits the number of attributes on a start element.
func MaxAttrs(value int) Options {
	return Options{maxAttrs: value, maxAttrsSet: true}
}

// MaxTokenSize limits the maximum size of a single token in bytes.
// Tokens exactly MaxTokenSize bytes long are allowed.
func MaxTokenSize(value int) Options {
	return Options{maxTokenSize: value, maxTokenSizeSet: true}
}

// Strict enables XML declaration validation.
// It enforces declaration placement, version and encoding/standalone
// ordering and values, comment syntax, and the presence of a root element.
func Strict(value bool) Options {
	return Options{strict: value, strictSet: true}
}

func bufferSize(value int) Options {
	return Options{bufferSize: value, bufferSizeSet: true}
}

type decoderOptions struct {
	maxDepth        int
	maxAttrs        int
	maxTokenSize    int
	bufferSize      int
	resolveEntities bool
	trimText        bool
	strict          bool
}

func resolveOptions(opts Options) decoderOptions {
	out := decoderOptions{
		maxDepth:        normalizeLimit(opts.maxDepth),
		maxAttrs:        normalizeLimit(opts.maxAttrs),
		maxTokenSize:    normalizeLimit(opts.maxTokenSize),
		bufferSize:      opts.bufferSize,
		resolveEntities: opts.resolveEntities,
		trimText:        opts.trimText,
		strict:          opts.strict,
	}
	if out.bufferSize <= 0 {
		out.bufferSize = defaultBufferSize
	}
	return out
}

func normalizeLimit(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
