package ast

import (
	"fmt"
	"strings"
)

// TypeKind is the shape of a TypeReference
type TypeKind int

const (
	KindNamed TypeKind = iota
	KindList
	KindNonNull
)

func (k TypeKind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindNonNull:
		return "non-null"
	default:
		return "named"
	}
}

// TypeReference is a GraphQL type as written in the tool's output, e.g. "[Episode!]!"
type TypeReference struct {
	kind   TypeKind
	name   string
	ofType *TypeReference
}

// Named references a named type
func Named(name string) TypeReference {
	return TypeReference{kind: KindNamed, name: name}
}

// List wraps of in a list
func List(of TypeReference) TypeReference {
	return TypeReference{kind: KindList, ofType: &of}
}

// NonNull marks of as non-null
func NonNull(of TypeReference) TypeReference {
	return TypeReference{kind: KindNonNull, ofType: &of}
}

func (t TypeReference) Kind() TypeKind { return t.kind }

// OfType returns the wrapped type of a list or non-null reference
func (t TypeReference) OfType() (TypeReference, bool) {
	if t.ofType == nil {
		return TypeReference{}, false
	}
	return *t.ofType, true
}

// NamedType returns the innermost type name
func (t TypeReference) NamedType() string {
	for t.ofType != nil {
		t = *t.ofType
	}
	return t.name
}

// IsNonNull reports whether the outermost wrapper is non-null
func (t TypeReference) IsNonNull() bool {
	return t.kind == KindNonNull
}

func (t TypeReference) String() string {
	switch t.kind {
	case KindList:
		return "[" + t.ofType.String() + "]"
	case KindNonNull:
		return t.ofType.String() + "!"
	default:
		return t.name
	}
}

// ParseTypeReference parses a type string such as "[Episode!]!"
func ParseTypeReference(s string) (TypeReference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeReference{}, fmt.Errorf("empty type reference")
	}

	if strings.HasSuffix(s, "!") {
		inner, err := ParseTypeReference(s[:len(s)-1])
		if err != nil {
			return TypeReference{}, err
		}
		if inner.kind == KindNonNull {
			return TypeReference{}, fmt.Errorf("type %q is non-null twice", s)
		}
		return NonNull(inner), nil
	}

	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return TypeReference{}, fmt.Errorf("unterminated list type %q", s)
		}
		inner, err := ParseTypeReference(s[1 : len(s)-1])
		if err != nil {
			return TypeReference{}, err
		}
		return List(inner), nil
	}

	if !isName(s) {
		return TypeReference{}, fmt.Errorf("invalid type name %q", s)
	}
	return Named(s), nil
}

func isName(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}
