package abx

import (
	"strings"

	abxerrors "github.com/rhythmcache/xml2abx/errors"
)

// StringPool assigns first-seen indices to interned strings.
// Entries are never evicted. The zero value is ready to use.
type StringPool struct {
	index   map[string]uint16
	strings []string
}

// Lookup returns the index of s when it has been added before.
func (p *StringPool) Lookup(s string) (uint16, bool) {
	if p == nil || p.index == nil {
		return 0, false
	}
	idx, ok := p.index[s]
	return idx, ok
}

// Add registers s at the next index and returns it.
// Adding a known string returns its existing index.
// s is copied, so callers may pass views into reusable buffers.
func (p *StringPool) Add(s string) (uint16, error) {
	if idx, ok := p.Lookup(s); ok {
		return idx, nil
	}
	if err := p.checkCapacity(); err != nil {
		return 0, err
	}
	if p.index == nil {
		p.index = make(map[string]uint16, 64)
	}
	owned := strings.Clone(s)
	idx := uint16(len(p.strings))
	p.index[owned] = idx
	p.strings = append(p.strings, owned)
	return idx, nil
}

// At returns the string registered at idx.
func (p *StringPool) At(idx uint16) (string, bool) {
	if p == nil || int(idx) >= len(p.strings) {
		return "", false
	}
	return p.strings[idx], true
}

// Len reports the number of registered strings.
func (p *StringPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.strings)
}

func (p *StringPool) checkCapacity() error {
	if len(p.strings) >= MaxPoolEntries {
		return abxerrors.Newf(abxerrors.ErrPoolExhausted, "string pool holds %d entries, no index left", len(p.strings))
	}
	return nil
}
