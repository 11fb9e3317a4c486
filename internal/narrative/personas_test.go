package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPersonaCatalog(t *testing.T) {
	catalog := DefaultPersonaCatalog()
	all := catalog.All()
	require.Len(t, all, 3)
	for _, id := range []PersonaID{PersonaFormal, PersonaYoungSibling, PersonaFriend} {
		p, ok := catalog.Get(id)
		require.True(t, ok, id)
		assert.NotEmpty(t, p.Template)
	}
}

func TestLoadPersonaCatalogRejectsBadSets(t *testing.T) {
	tests := map[string]string{
		"two personas": `
personas:
  - {id: formal, template: a}
  - {id: friend, template: b}`,
		"duplicate": `
personas:
  - {id: formal, template: a}
  - {id: formal, template: b}
  - {id: friend, template: c}`,
		"unknown id": `
personas:
  - {id: formal, template: a}
  - {id: goth, template: b}
  - {id: friend, template: c}`,
		"empty template": `
personas:
  - {id: formal, template: a}
  - {id: young-sibling, template: ""}
  - {id: friend, template: c}`,
		"not yaml": "personas: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPersonaCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestPersonaAssignerIsBijection(t *testing.T) {
	assigner := NewPersonaAssigner(nil, nil)
	for i := 0; i < 200; i++ {
		a := assigner.Assign()
		require.True(t, a.Valid(), "assignment %v is not a permutation", a)
	}
}

func TestPersonaAssignerCoversAllOrders(t *testing.T) {
	assigner := NewPersonaAssigner(nil, nil)
	seen := map[PersonaAssignment]int{}
	for i := 0; i < 600; i++ {
		seen[assigner.Assign()]++
	}
	// 3! orders; each has probability 1/6 per draw.
	assert.Len(t, seen, 6)
}

func TestPersonaAssignerUsesInjectedPermutation(t *testing.T) {
	assigner := NewPersonaAssigner(DefaultPersonaCatalog(), func(int) []int { return []int{2, 0, 1} })
	assert.Equal(t, PersonaAssignment{PersonaFriend, PersonaFormal, PersonaYoungSibling}, assigner.Assign())
}

func TestPersonaAssignmentValid(t *testing.T) {
	assert.False(t, PersonaAssignment{PersonaFormal, PersonaFormal, PersonaFriend}.Valid())
	assert.False(t, PersonaAssignment{PersonaFormal, PersonaFriend, ""}.Valid())
	assert.True(t, PersonaAssignment{PersonaFriend, PersonaYoungSibling, PersonaFormal}.Valid())
}
