package material

import (
	"strings"
	"testing"

	"github.com/df07/go-acoustic-raytracer/pkg/geometry"
)

func TestCatalog_LookupFallsBackToPrefix(t *testing.T) {
	c := NewCatalogWithLibrary()
	c.Assign("treated", "acoustic-panel")
	c.Assign("treated/floor", "carpet")

	tests := []struct {
		id       string
		expected string
		found    bool
	}{
		{"treated/floor", "carpet", true},
		{"treated/ceiling", "acoustic-panel", true},
		{"treated/panel/3", "acoustic-panel", true},
		{"treated", "acoustic-panel", true},
		{"empty/floor", "", false},
		{"treatedx/floor", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			m, ok := c.Lookup(geometry.SurfaceID(tt.id))
			if ok != tt.found {
				t.Fatalf("Expected found=%v, got %v", tt.found, ok)
			}
			if ok && m.Name != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, m.Name)
			}
		})
	}
}

func TestCatalog_UndefinedMaterialIsMissing(t *testing.T) {
	c := NewCatalog()
	c.Assign("wall", "unobtainium")
	if _, ok := c.Lookup("wall"); ok {
		t.Error("Assignment to undefined material should not resolve")
	}

	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "unobtainium") {
		t.Errorf("Expected validation error naming the material, got %v", err)
	}
}

func TestCatalog_ValidateRejectsBadMaterial(t *testing.T) {
	c := NewCatalog()
	c.Define(NewThreeBandMaterial("broken", 0.1, 2, 0.1, 0.1, true))
	if err := c.Validate(); err == nil {
		t.Error("Expected validation error for out of range coefficient")
	}
}

func TestCatalog_Assignments(t *testing.T) {
	c := NewCatalogWithLibrary()
	c.Assign("a", "wood")
	got := c.Assignments()
	got["b"] = "glass"
	if len(c.Assignments()) != 1 {
		t.Error("Assignments should return a copy")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}
