package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyHeader(t *testing.T) {
	tests := []struct {
		header string
		kind   ColumnKind
		name   string
	}{
		{"DEFINITION_Diet", KindDefinition, "diet"},
		{"PROPERTY_Minimum mass", KindProperty, "minimum mass"},
		{"NOTES_Source", KindNotes, "source"},
		{"  DEFINITION_Realm ", KindDefinition, "realm"},
		{"\ufeffDEFINITION_Nutrition source", KindDefinition, "nutrition source"},
		// token does not have to lead
		{"X_DEFINITION_Mobility", KindDefinition, "definition"},
		{"PROPERTY_Herbivory_Assimilation", KindProperty, "herbivory"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			spec, err := ClassifyHeader(tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, spec.Kind)
			assert.Equal(t, tt.name, spec.Name)
		})
	}
}

func TestClassifyHeaderSchemaErrors(t *testing.T) {
	for _, header := range []string{"FOO_Diet", "definition_diet", "DEFINITION", "PROPERTY_", "NOTES_ ", ""} {
		t.Run(header, func(t *testing.T) {
			_, err := ClassifyHeader(header)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchema), "got %v", err)

			var ce *ColumnError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, header, ce.Header)
			assert.Equal(t, -1, ce.Row)
		})
	}
}

func TestColumnKindString(t *testing.T) {
	assert.Equal(t, "definition", KindDefinition.String())
	assert.Equal(t, "property", KindProperty.String())
	assert.Equal(t, "notes", KindNotes.String())
	assert.Equal(t, "unknown", ColumnKind(0).String())
}
