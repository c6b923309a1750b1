package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonRecord_Identity_Deterministic(t *testing.T) {
	p := PersonRecord{Name: "Jane Doe", Email: "jdoe@example.edu", Title: "Professor"}
	id1 := p.Identity()
	id2 := p.Identity()

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 16)
}

func TestPersonRecord_Identity_NormalizationStable(t *testing.T) {
	a := PersonRecord{Name: "Jane  Doe ", Email: "JDoe@Example.EDU", Title: " Professor"}
	b := PersonRecord{Name: "jane doe", Email: "jdoe@example.edu", Title: "Professor"}

	assert.Equal(t, a.Identity(), b.Identity())
}

func TestPersonRecord_Identity_DistinctPeople(t *testing.T) {
	a := PersonRecord{Name: "Jane Doe", Email: "jdoe@example.edu"}
	b := PersonRecord{Name: "John Doe", Email: "john@example.edu"}

	assert.NotEqual(t, a.Identity(), b.Identity())
}

func TestPersonRecord_FieldDiffs(t *testing.T) {
	old := PersonRecord{Name: "Jane Doe", Title: "Assistant Professor", Email: "jdoe@example.edu"}
	cur := PersonRecord{Name: "Jane Doe", Title: "Associate Professor", Email: "JDOE@example.edu"}

	diffs := old.FieldDiffs(cur)
	require.Len(t, diffs, 1)
	assert.Equal(t, "title", diffs[0].Field)
	assert.Equal(t, "Assistant Professor", diffs[0].Old)
	assert.Equal(t, "Associate Professor", diffs[0].New)
}

func TestPersonRecord_FieldsEqual_EmailCaseFolded(t *testing.T) {
	a := PersonRecord{Name: "Jane Doe", Email: "jdoe@example.edu"}
	b := PersonRecord{Name: "Jane Doe", Email: "JDoe@Example.edu"}

	assert.True(t, a.FieldsEqual(b))
}

func TestPersonRecord_FieldsEqual_TitleLiteral(t *testing.T) {
	// "Prof." and "Professor" are distinct values on purpose.
	a := PersonRecord{Name: "Jane Doe", Title: "Prof."}
	b := PersonRecord{Name: "Jane Doe", Title: "Professor"}

	assert.False(t, a.FieldsEqual(b))
}

func TestNormalizeField(t *testing.T) {
	assert.Equal(t, "Jane Doe", NormalizeField("  Jane \t Doe\n"))
	assert.Equal(t, "", NormalizeField("   "))
}

func TestPersonRecord_HasContact(t *testing.T) {
	assert.False(t, PersonRecord{Name: "Jane Doe"}.HasContact())
	assert.True(t, PersonRecord{Name: "Jane Doe", Phone: "555-1234"}.HasContact())
	assert.True(t, PersonRecord{Name: "Jane Doe", ProfileURL: "https://example.edu/jdoe"}.HasContact())
}
