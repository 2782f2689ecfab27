// Package elempath tracks the chain of open element names while walking a
// structured-markup document. Paths are immutable: push and pop return new
// paths, so a caller can hold a path across recursion without copying.
package elempath

// ElementPath is an immutable ancestor chain of element names. The nil path
// is the empty root.
type ElementPath struct {
	name   string
	parent *ElementPath
}

// Push returns a new path with name as its leaf and the receiver as its
// ancestor chain.
func (p *ElementPath) Push(name string) *ElementPath {
	return &ElementPath{name: name, parent: p}
}

// Pop discards the leaf and returns the ancestor chain. Popping the empty
// path returns the empty path.
func (p *ElementPath) Pop() *ElementPath {
	if p == nil {
		return nil
	}
	return p.parent
}

// Matches reports whether the path exactly equals names, read from root to
// leaf. Comparison is case sensitive and requires equal length; the empty
// path matches only an empty name list.
func (p *ElementPath) Matches(names []string) bool {
	if p == nil {
		return len(names) == 0
	}
	if len(names) == 0 {
		return false
	}
	last := names[len(names)-1]
	return last == p.name && p.parent.Matches(names[:len(names)-1])
}
