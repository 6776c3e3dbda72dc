package material

// Library returns the built-in materials. Octave values are typical published
// coefficients at 125, 250, 500, 1000, 2000 and 4000 Hz.
func Library() []Material {
	return []Material{
		DefaultMaterial(),
		NewOctaveMaterial("concrete", [6]float64{0.01, 0.02, 0.04, 0.06, 0.08, 0.10}, 0.05, true),
		NewOctaveMaterial("painted-concrete", [6]float64{0.10, 0.05, 0.06, 0.07, 0.09, 0.08}, 0.05, true),
		NewOctaveMaterial("drywall", [6]float64{0.29, 0.10, 0.05, 0.04, 0.07, 0.09}, 0.10, true),
		NewOctaveMaterial("wood", [6]float64{0.15, 0.11, 0.10, 0.07, 0.06, 0.07}, 0.10, true),
		NewOctaveMaterial("glass", [6]float64{0.35, 0.25, 0.18, 0.12, 0.07, 0.04}, 0.05, true),
		NewOctaveMaterial("carpet", [6]float64{0.02, 0.06, 0.14, 0.37, 0.60, 0.65}, 0.20, true),
		NewOctaveMaterial("curtain", [6]float64{0.14, 0.35, 0.55, 0.72, 0.70, 0.65}, 0.40, true),
		NewOctaveMaterial("upholstered", [6]float64{0.19, 0.37, 0.56, 0.67, 0.61, 0.59}, 0.70, true),
		NewOctaveMaterial("acoustic-panel", [6]float64{0.25, 0.60, 0.90, 0.95, 0.95, 0.90}, 0.30, true),
		// Absorbs everything that is not scattered
		NewThreeBandMaterial("anechoic", 1, 1, 1, 0, false),
	}
}

// LibraryNames lists the built-in material names in definition order
func LibraryNames() []string {
	lib := Library()
	names := make([]string, len(lib))
	for i, m := range lib {
		names[i] = m.Name
	}
	return names
}
