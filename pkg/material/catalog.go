package material

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/df07/go-acoustic-raytracer/pkg/geometry"
)

// Catalog maps surface IDs to named materials.
//
// Assignments are hierarchical: a lookup for "treated/floor" falls back to
// "treated" when the face has no assignment of its own, so a whole room can
// be given one material and individual faces overridden.
type Catalog struct {
	mu          sync.RWMutex
	materials   map[string]Material
	assignments map[geometry.SurfaceID]string
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		materials:   make(map[string]Material),
		assignments: make(map[geometry.SurfaceID]string),
	}
}

// NewCatalogWithLibrary creates a catalog pre-populated with the built-in materials
func NewCatalogWithLibrary() *Catalog {
	c := NewCatalog()
	for _, m := range Library() {
		c.Define(m)
	}
	return c
}

// Define adds or replaces a named material
func (c *Catalog) Define(m Material) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.materials[m.Name] = m
}

// Assign binds a surface (or surface prefix) to a material name
func (c *Catalog) Assign(id geometry.SurfaceID, materialName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignments[id] = materialName
}

// Material returns a defined material by name
func (c *Catalog) Material(name string) (Material, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.materials[name]
	return m, ok
}

// Lookup resolves the material for a surface, walking up "/" separated prefixes
func (c *Catalog) Lookup(id geometry.SurfaceID) (Material, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := string(id)
	for {
		if name, ok := c.assignments[geometry.SurfaceID(key)]; ok {
			m, found := c.materials[name]
			return m, found
		}
		slash := strings.LastIndex(key, "/")
		if slash < 0 {
			return Material{}, false
		}
		key = key[:slash]
	}
}

// Validate checks every defined material and every assignment target
func (c *Catalog) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.materials))
	for name := range c.materials {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.materials[name].Validate(); err != nil {
			return err
		}
	}

	ids := make([]string, 0, len(c.assignments))
	for id := range c.assignments {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		name := c.assignments[geometry.SurfaceID(id)]
		if _, ok := c.materials[name]; !ok {
			return fmt.Errorf("surface %q assigned to undefined material %q", id, name)
		}
	}
	return nil
}

// Assignments returns a copy of the surface to material bindings
func (c *Catalog) Assignments() map[geometry.SurfaceID]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[geometry.SurfaceID]string, len(c.assignments))
	for id, name := range c.assignments {
		out[id] = name
	}
	return out
}
