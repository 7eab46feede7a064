package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maastricht-university/patient-pulse/entities"
	"github.com/maastricht-university/patient-pulse/timeline"
)

func TestToggle(t *testing.T) {
	a := EntityRef{Kind: entities.Drugs, Name: "aspirin"}
	b := EntityRef{Kind: entities.Symptoms, Name: "cough"}
	var s SelectionState

	assert.True(t, s.Toggle(a, []timeline.LineNumber{2, 5}))
	assert.Equal(t, []timeline.LineNumber{2, 5}, s.Lines())
	assert.True(t, s.Is(a))

	assert.False(t, s.Toggle(a, []timeline.LineNumber{2, 5}))
	assert.Empty(t, s.Lines())
	assert.False(t, s.Is(a))

	s.Toggle(a, []timeline.LineNumber{2, 5})
	assert.True(t, s.Toggle(b, []timeline.LineNumber{7, 1}))
	assert.Equal(t, []timeline.LineNumber{1, 7}, s.Lines())
	assert.False(t, s.Has(2))
	assert.False(t, s.Is(a))
}

func TestToggleSameNameDifferentKind(t *testing.T) {
	var s SelectionState
	s.Toggle(EntityRef{Kind: entities.Diseases, Name: "flu"}, []timeline.LineNumber{1})
	assert.True(t, s.Toggle(EntityRef{Kind: entities.Symptoms, Name: "flu"}, []timeline.LineNumber{3}))
	assert.Equal(t, []timeline.LineNumber{3}, s.Lines())
}
