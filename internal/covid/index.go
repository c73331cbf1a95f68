package covid

import (
	"strings"

	"github.com/i474232898/covid19-stats/internal/common"
)

// KeyKind distinguishes the two key families of the country index.
type KeyKind int

const (
	NameKey KeyKind = iota
	ISOKey
)

func (k KeyKind) String() string {
	switch k {
	case NameKey:
		return "name"
	case ISOKey:
		return "iso"
	}
	return "unknown"
}

// CountryKey is a lookup key tagged with its family. Value is already in
// canonical form (folded name, or upper-case code).
type CountryKey struct {
	Kind  KeyKind
	Value string
}

// NameKeyOf folds a display name into a name key.
func NameKeyOf(name string) CountryKey {
	return CountryKey{Kind: NameKey, Value: common.FoldKey(name)}
}

// ISOKeyOf canonicalizes an alpha-2 code into an ISO key.
func ISOKeyOf(code string) CountryKey {
	return CountryKey{Kind: ISOKey, Value: strings.ToUpper(strings.TrimSpace(code))}
}

// CandidateKeys returns the keys to try, in order, for free-form input: the
// ISO key first when the input is two letters, then the name key.
func CandidateKeys(raw string) []CountryKey {
	name := NameKeyOf(raw)
	if name.Value == "" {
		return nil
	}
	if common.IsAlpha2(name.Value) {
		return []CountryKey{ISOKeyOf(name.Value), name}
	}
	return []CountryKey{name}
}

// CountryIndex resolves name and ISO keys to positions in the snapshot's
// country list.
type CountryIndex struct {
	records []CountryRecord
	keys    map[CountryKey]int
}

// BuildIndex indexes records by name and, when known, by ISO code. Two records
// sharing a key within one family is an error.
func BuildIndex(records []CountryRecord) (*CountryIndex, error) {
	idx := &CountryIndex{
		records: records,
		keys:    make(map[CountryKey]int, 2*len(records)),
	}

	for i, rec := range records {
		if err := idx.insert(NameKeyOf(rec.Location), i); err != nil {
			return nil, err
		}
		if rec.ISO2 == "" {
			continue
		}
		if err := idx.insert(ISOKeyOf(rec.ISO2), i); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (idx *CountryIndex) insert(key CountryKey, pos int) error {
	if key.Value == "" {
		return nil
	}
	if prev, ok := idx.keys[key]; ok {
		return &IndexCollisionError{
			Family:   key.Kind,
			Key:      key.Value,
			Existing: idx.records[prev].Location,
			Incoming: idx.records[pos].Location,
		}
	}
	idx.keys[key] = pos
	return nil
}

// Lookup returns the record for an exact canonical key.
func (idx *CountryIndex) Lookup(key CountryKey) (CountryRecord, bool) {
	if idx == nil {
		return CountryRecord{}, false
	}
	pos, ok := idx.keys[key]
	if !ok {
		return CountryRecord{}, false
	}
	return idx.records[pos], true
}

// Resolve finds a country by free-form name or alpha-2 code, ignoring case
// and surrounding or repeated whitespace. A miss is reported through ok.
func (idx *CountryIndex) Resolve(raw string) (CountryRecord, bool) {
	for _, key := range CandidateKeys(raw) {
		if rec, ok := idx.Lookup(key); ok {
			return rec, true
		}
	}
	return CountryRecord{}, false
}

// Len returns the number of keys across both families.
func (idx *CountryIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.keys)
}
