package ast

// WalkFunc is called for every field in depth-first order. path holds the
// response names from the root down to and including f. Returning false
// skips f's children.
type WalkFunc func(path []string, f SelectionField) bool

// Walk visits fields and their descendants, including fields selected
// inside inline fragments. Fragment spreads are not followed.
func Walk(fields []SelectionField, fn WalkFunc) {
	walk(nil, fields, fn)
}

func walk(parent []string, fields []SelectionField, fn WalkFunc) {
	for _, f := range fields {
		path := append(append(make([]string, 0, len(parent)+1), parent...), f.responseName)
		if !fn(path, f) {
			continue
		}
		walk(path, f.subFields.OrElse(nil), fn)
		for _, inline := range f.inlineFragments.OrElse(nil) {
			walk(path, inline.fields, fn)
		}
	}
}

// CountFields returns the number of fields in the tree, inline fragment fields included
func CountFields(fields []SelectionField) int {
	count := 0
	Walk(fields, func([]string, SelectionField) bool {
		count++
		return true
	})
	return count
}
