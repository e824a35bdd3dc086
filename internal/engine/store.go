package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// TraitStore holds categorical columns in struct-of-arrays form: one lowercased
// value slice per trait, index aligned to entity ordinals, plus an inverted index
// (distinct value -> ordinals) built eagerly at load.
type TraitStore struct {
	values map[string][]string
	index  map[string]map[string]*roaring.Bitmap
}

func newTraitStore() *TraitStore {
	return &TraitStore{
		values: make(map[string][]string),
		index:  make(map[string]map[string]*roaring.Bitmap),
	}
}

func (s *TraitStore) add(spec ColumnSpec, raw []string) error {
	if _, dup := s.values[spec.Name]; dup {
		return columnErr(spec.Header, -1, ErrDuplicateKey, "trait %q already defined", spec.Name)
	}

	vals := make([]string, len(raw))
	cells := make(map[string]*roaring.Bitmap)
	for i, v := range raw {
		lv := strings.ToLower(v)
		vals[i] = lv
		bm, ok := cells[lv]
		if !ok {
			bm = roaring.New()
			cells[lv] = bm
		}
		bm.Add(uint32(i))
	}
	for _, bm := range cells {
		bm.RunOptimize()
	}

	s.values[spec.Name] = vals
	s.index[spec.Name] = cells
	return nil
}

// ValueAt returns the lowercased value of trait for the entity at ordinal.
func (s *TraitStore) ValueAt(ordinal int, trait string) (string, error) {
	vals, ok := s.values[trait]
	if !ok {
		return "", unknownKey("trait", trait)
	}
	if ordinal < 0 || ordinal >= len(vals) {
		return "", outOfRange(ordinal, len(vals))
	}
	return vals[ordinal], nil
}

// OrdinalsWhere returns the ascending ordinals whose trait equals value.
// A value never observed yields an empty, non-nil slice.
func (s *TraitStore) OrdinalsWhere(trait, value string) ([]int, error) {
	cells, ok := s.index[trait]
	if !ok {
		return nil, unknownKey("trait", trait)
	}
	bm, ok := cells[value]
	if !ok {
		return []int{}, nil
	}
	out := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out, nil
}

// Values returns the sorted distinct values observed for trait.
func (s *TraitStore) Values(trait string) ([]string, error) {
	cells, ok := s.index[trait]
	if !ok {
		return nil, unknownKey("trait", trait)
	}
	return sortedKeys(cells), nil
}

func (s *TraitStore) count(trait, value string) int {
	if bm, ok := s.index[trait][value]; ok {
		return int(bm.GetCardinality())
	}
	return 0
}

// Names returns trait names in lexicographic order.
func (s *TraitStore) Names() []string { return sortedKeys(s.values) }

// PropertyStore holds numeric columns, one float64 slice per property.
type PropertyStore struct {
	values map[string][]float64
}

func newPropertyStore() *PropertyStore {
	return &PropertyStore{values: make(map[string][]float64)}
}

func (s *PropertyStore) add(spec ColumnSpec, raw []string) error {
	if _, dup := s.values[spec.Name]; dup {
		return columnErr(spec.Header, -1, ErrDuplicateKey, "property %q already defined", spec.Name)
	}

	vals := make([]float64, len(raw))
	for i, v := range raw {
		f, err := parseNumber(v)
		if err != nil {
			return columnErr(spec.Header, i, ErrFormat, "%v", err)
		}
		vals[i] = f
	}
	s.values[spec.Name] = vals
	return nil
}

// ValueAt returns property for the entity at ordinal.
func (s *PropertyStore) ValueAt(ordinal int, property string) (float64, error) {
	vals, ok := s.values[property]
	if !ok {
		return 0, unknownKey("property", property)
	}
	if ordinal < 0 || ordinal >= len(vals) {
		return 0, outOfRange(ordinal, len(vals))
	}
	return vals[ordinal], nil
}

// Names returns property names in lexicographic order.
func (s *PropertyStore) Names() []string { return sortedKeys(s.values) }

// parseNumber is locale independent: '.' is the only decimal separator.
func parseNumber(raw string) (float64, error) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return 0, errBlank
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, numberErr(raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, numberErr(raw)
	}
	return f, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
