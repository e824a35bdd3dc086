package engine

import (
	"fgdefs/internal/models"
)

// Column is one header with its raw values, as yielded by a TabularDataSource.
type Column struct {
	Header string
	Values []string
}

// Dataset is the ephemeral tabular form of a definitions file. Rows is N, the
// number of functional groups.
type Dataset struct {
	Columns []Column
	Rows    int
}

// Definitions is the loaded, read-only lookup structure for functional groups.
// There are no mutators; a *Definitions is safe for concurrent readers.
type Definitions struct {
	rows       int
	traits     *TraitStore
	properties *PropertyStore
}

// Build classifies every column of ds and routes it to the trait or property
// store. Notes columns are dropped. The first failure aborts the build.
func Build(ds Dataset) (*Definitions, error) {
	if ds.Rows < 0 {
		return nil, columnErr("", -1, ErrSchema, "negative row count %d", ds.Rows)
	}

	traits := newTraitStore()
	properties := newPropertyStore()

	for _, col := range ds.Columns {
		spec, err := ClassifyHeader(col.Header)
		if err != nil {
			return nil, err
		}
		if len(col.Values) != ds.Rows {
			return nil, columnErr(col.Header, -1, ErrSchema, "has %d values, want %d", len(col.Values), ds.Rows)
		}

		switch spec.Kind {
		case KindDefinition:
			err = traits.add(spec, col.Values)
		case KindProperty:
			err = properties.add(spec, col.Values)
		case KindNotes:
			// discarded
		}
		if err != nil {
			return nil, err
		}
	}

	return &Definitions{rows: ds.Rows, traits: traits, properties: properties}, nil
}

// EntityCount is N, the number of functional groups.
func (d *Definitions) EntityCount() int { return d.rows }

func (d *Definitions) PropertyValue(ordinal int, property string) (float64, error) {
	return d.properties.ValueAt(ordinal, property)
}

func (d *Definitions) TraitValue(ordinal int, trait string) (string, error) {
	return d.traits.ValueAt(ordinal, trait)
}

// GroupsMatchingTrait returns the ordinals g with TraitValue(g, trait) == value, ascending.
func (d *Definitions) GroupsMatchingTrait(trait, value string) ([]int, error) {
	return d.traits.OrdinalsWhere(trait, value)
}

// TraitValues returns the distinct values of trait in lexicographic order.
func (d *Definitions) TraitValues(trait string) ([]string, error) {
	return d.traits.Values(trait)
}

func (d *Definitions) TraitNames() []string    { return d.traits.Names() }
func (d *Definitions) PropertyNames() []string { return d.properties.Names() }

// Group collects every trait and property of one functional group.
func (d *Definitions) Group(ordinal int) (models.GroupView, error) {
	if ordinal < 0 || ordinal >= d.rows {
		return models.GroupView{}, outOfRange(ordinal, d.rows)
	}
	view := models.GroupView{
		Ordinal:    ordinal,
		Traits:     make(map[string]string, len(d.traits.values)),
		Properties: make(map[string]float64, len(d.properties.values)),
	}
	for name, vals := range d.traits.values {
		view.Traits[name] = vals[ordinal]
	}
	for name, vals := range d.properties.values {
		view.Properties[name] = vals[ordinal]
	}
	return view, nil
}
