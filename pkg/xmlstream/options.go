package xmlstream

import "github.com/rhythmcache/xml2abx/pkg/xmltext"

// Option configures the xmlstream reader.
// Construct options via helpers in pkg/xmltext.
type Option = xmltext.Options

func buildOptions(opts ...Option) []xmltext.Options {
	base := []xmltext.Options{
		xmltext.ResolveEntities(false),
	}
	out := make([]xmltext.Options, 0, len(base)+len(opts))
	out = append(out, base...)
	out = append(out, opts...)
	return out
}
