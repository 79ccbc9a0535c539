package ast

// Optional distinguishes an absent value from a present zero value, so an
// absent "args" key and an empty "args" array stay different.
type Optional[T any] struct {
	value   T
	present bool
}

// Some returns a present Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// None returns an absent Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsPresent reports whether a value is present
func (o Optional[T]) IsPresent() bool {
	return o.present
}

// OrElse returns the value if present, otherwise def
func (o Optional[T]) OrElse(def T) T {
	if o.present {
		return o.value
	}
	return def
}

func cloneSlice[T any](o Optional[[]T]) Optional[[]T] {
	if !o.present {
		return o
	}
	return Some(append([]T(nil), o.value...))
}
