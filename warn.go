package xml2abx

import "go.uber.org/zap"

// Warner receives advisories about XML features ABX cannot represent.
// Warnings never abort a conversion.
type Warner interface {
	Warn(feature, detail string)
}

// WarnerFunc adapts a function to Warner.
type WarnerFunc func(feature, detail string)

// Warn calls f.
func (f WarnerFunc) Warn(feature, detail string) {
	f(feature, detail)
}

// DiscardWarnings drops every warning.
var DiscardWarnings Warner = WarnerFunc(func(string, string) {})

type logWarner struct {
	logger *zap.Logger
}

// NewLogWarner returns a Warner that logs each warning at warn level.
func NewLogWarner(logger *zap.Logger) Warner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logWarner{logger: logger}
}

func (w logWarner) Warn(feature, detail string) {
	w.logger.Warn(feature+" is not supported and might be lost", zap.String("detail", detail))
}

const (
	featureNamespaces = "Namespaces and prefixes"
	featureEncoding   = "Non-UTF-8 encoding"
)
