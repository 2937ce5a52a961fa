package xml2abx

import (
	"go.uber.org/zap"

	"github.com/rhythmcache/xml2abx/internal/whitespace"
	"github.com/rhythmcache/xml2abx/pkg/xmlstream"
)

type intOption struct {
	value int
	set   bool
}

func (o intOption) resolved() int {
	if !o.set {
		return 0
	}
	return o.value
}

// Options configures a conversion.
// The zero value preserves whitespace, keeps entity references as tokens,
// discards warnings, and logs nothing.
type Options struct {
	warner             Warner
	logger             *zap.Logger
	maxDepth           intOption
	maxAttrs           intOption
	maxTokenSize       intOption
	collapseWhitespace bool
	resolveEntities    bool
	strict             bool
}

type resolvedOptions struct {
	warner    Warner
	logger    *zap.Logger
	xmlOpts   []xmlstream.Option
	wsMode    whitespace.Mode
	maxDepth  int
	maxAttrs  int
	tokenSize int
}
