package endpoint

import "fmt"

// Descriptor is one documented API operation: a path template and an
// optional HTTP method. An empty Method means the endpoint was listed
// without one and applies to any method.
//
// Descriptor is comparable and is used directly as a map key, so the
// (Path, Method) pair is its identity.
type Descriptor struct {
	Path   string
	Method string
}

// String returns "METHOD /path", or just the path when no method is set
func (d Descriptor) String() string {
	if d.Method == "" {
		return d.Path
	}
	return fmt.Sprintf("%s %s", d.Method, d.Path)
}

// Unique returns descriptors with duplicates removed, keeping the first
// occurrence of each (Path, Method) pair in input order
func Unique(descriptors []Descriptor) []Descriptor {
	seen := make(map[Descriptor]bool, len(descriptors))
	unique := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if seen[d] {
			continue
		}
		seen[d] = true
		unique = append(unique, d)
	}
	return unique
}
