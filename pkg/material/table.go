package material

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// Table is an append-only arena of materials referenced by index.
// It is built once during scene setup and only read while rendering.
type Table struct {
	materials []Material
}

// NewTable creates an empty material table
func NewTable() *Table {
	return &Table{}
}

// Add appends a material, stamps its ID, and returns that ID
func (t *Table) Add(m Material) core.MaterialID {
	id := core.MaterialID(len(t.materials))
	m.ID = id
	t.materials = append(t.materials, m)
	return id
}

// Get returns the material for id
func (t *Table) Get(id core.MaterialID) (Material, bool) {
	if id < 0 || int(id) >= len(t.materials) {
		return Material{}, false
	}
	return t.materials[id], true
}

// Len returns the number of materials
func (t *Table) Len() int {
	return len(t.materials)
}

// Materials returns a copy of the materials in table order
func (t *Table) Materials() []Material {
	return append([]Material(nil), t.materials...)
}
