package semver

// ComponentSet is a small set over the three version components, backed by
// bit flags. The zero value is the empty set.
type ComponentSet uint8

func componentFlag(c Component) ComponentSet {
	switch c {
	case Major:
		return 4
	case Minor:
		return 2
	default:
		return 1
	}
}

// Add inserts a component into the set. Adding is idempotent.
func (s *ComponentSet) Add(c Component) {
	*s |= componentFlag(c)
}

// Has reports whether the component is in the set.
func (s ComponentSet) Has(c Component) bool {
	return s&componentFlag(c) != 0
}

// Missing returns the components absent from the set, in canonical order
// (major, minor, patch). The result is a snapshot: later mutations of the
// set are not reflected in a slice already returned.
func (s ComponentSet) Missing() []Component {
	var missing []Component
	for _, c := range Components() {
		if !s.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}
