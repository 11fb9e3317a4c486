package narrative

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultPersonaYAML []byte

// Persona is one fixed narrator style.
type Persona struct {
	ID       PersonaID `yaml:"id" json:"id"`
	Label    string    `yaml:"label" json:"label"`
	Template string    `yaml:"template" json:"template"`
}

// PersonaCatalog is the immutable set of three personas.
type PersonaCatalog struct {
	byID  map[PersonaID]Persona
	order []PersonaID
}

// LoadPersonaCatalog parses a YAML catalog and checks it holds exactly the three known personas.
func LoadPersonaCatalog(data []byte) (*PersonaCatalog, error) {
	var doc struct {
		Personas []Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("narrative: parse persona catalog: %w", err)
	}

	catalog := &PersonaCatalog{byID: make(map[PersonaID]Persona, SlotCount)}
	for _, p := range doc.Personas {
		p.Template = strings.TrimSpace(p.Template)
		if p.Template == "" {
			return nil, fmt.Errorf("narrative: persona %q has no template", p.ID)
		}
		if _, dup := catalog.byID[p.ID]; dup {
			return nil, fmt.Errorf("narrative: persona %q listed twice", p.ID)
		}
		catalog.byID[p.ID] = p
		catalog.order = append(catalog.order, p.ID)
	}

	var ids PersonaAssignment
	if len(catalog.order) != SlotCount {
		return nil, fmt.Errorf("narrative: persona catalog needs %d personas, got %d", SlotCount, len(catalog.order))
	}
	copy(ids[:], catalog.order)
	if !ids.Valid() {
		return nil, fmt.Errorf("narrative: persona catalog must contain %s, %s and %s", PersonaFormal, PersonaYoungSibling, PersonaFriend)
	}
	return catalog, nil
}

// DefaultPersonaCatalog returns the embedded catalog.
func DefaultPersonaCatalog() *PersonaCatalog {
	catalog, err := LoadPersonaCatalog(defaultPersonaYAML)
	if err != nil {
		panic(err)
	}
	return catalog
}

// Get returns the persona with id.
func (c *PersonaCatalog) Get(id PersonaID) (Persona, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// All returns the personas in catalog order.
func (c *PersonaCatalog) All() []Persona {
	out := make([]Persona, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// PersonaAssigner draws the per-session persona-to-slot permutation.
type PersonaAssigner struct {
	catalog *PersonaCatalog
	perm    func(n int) []int
}

// NewPersonaAssigner uses math/rand/v2 when perm is nil.
func NewPersonaAssigner(catalog *PersonaCatalog, perm func(n int) []int) *PersonaAssigner {
	if catalog == nil {
		catalog = DefaultPersonaCatalog()
	}
	if perm == nil {
		perm = rand.Perm
	}
	return &PersonaAssigner{catalog: catalog, perm: perm}
}

// Assign returns a uniformly random permutation of the personas over the slots.
func (a *PersonaAssigner) Assign() PersonaAssignment {
	var out PersonaAssignment
	for slot, idx := range a.perm(SlotCount) {
		out[slot] = a.catalog.order[idx]
	}
	return out
}
