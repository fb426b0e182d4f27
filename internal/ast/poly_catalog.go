package ast

// PolyCatalog maps polymorphic parameter names to their concrete bindings
// for a single instantiation. Type parameters ("$T") and count parameters
// ("$#N") live in disjoint namespaces. Lookup is linear; catalogs are
// typically tiny.
type PolyCatalog struct {
	Types  []PolyTypeBinding
	Counts []PolyCountBinding
}

// PolyTypeBinding binds a type parameter name to a concrete type.
type PolyTypeBinding struct {
	Name    string
	Binding Type
}

// PolyCountBinding binds a count parameter name to a nonnegative integer.
type PolyCountBinding struct {
	Name    string
	Binding uint64
}

// NewPolyCatalog makes an empty catalog.
func NewPolyCatalog() *PolyCatalog {
	return &PolyCatalog{}
}

// AddType binds a type parameter to a clone of the given type.
// Insertions never shadow; callers must check FindType first when a
// duplicate bind would be a conflict.
func (c *PolyCatalog) AddType(name string, binding Type) {
	c.Types = append(c.Types, PolyTypeBinding{Name: name, Binding: binding.Clone()})
}

// AddTypes binds a list of parameter names to bindings pointwise.
func (c *PolyCatalog) AddTypes(names []string, bindings []Type) {
	for i, name := range names {
		c.AddType(name, bindings[i])
	}
}

// AddCount binds a count parameter.
func (c *PolyCatalog) AddCount(name string, binding uint64) {
	c.Counts = append(c.Counts, PolyCountBinding{Name: name, Binding: binding})
}

// FindType returns the binding for a type parameter name, or nil.
func (c *PolyCatalog) FindType(name string) *PolyTypeBinding {
	// Linear search is probably the fastest here
	for i := range c.Types {
		if c.Types[i].Name == name {
			return &c.Types[i]
		}
	}
	return nil
}

// FindCount returns the binding for a count parameter name, or nil.
func (c *PolyCatalog) FindCount(name string) *PolyCountBinding {
	// Linear search is probably the fastest here
	for i := range c.Counts {
		if c.Counts[i].Name == name {
			return &c.Counts[i]
		}
	}
	return nil
}

// Signature renders the catalog's bindings deterministically, in insertion
// order. Used as the memoization key for polymorph instantiation.
func (c *PolyCatalog) Signature() string {
	sig := ""
	for i := range c.Types {
		sig += "$" + c.Types[i].Name + "=" + c.Types[i].Binding.String() + ";"
	}
	for i := range c.Counts {
		sig += "$#" + c.Counts[i].Name + "=" + formatUint(c.Counts[i].Binding) + ";"
	}
	return sig
}

func formatUint(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
