// Package ast models the selection sets apollo emits with --target=json.
// Values are built once by decoding and are read-only afterwards.
package ast

import "encoding/json"

// SelectionField is one field in a selection set. A field owns its sub-fields,
// so a selection set is always a tree.
type SelectionField struct {
	responseName  string
	fieldName     string
	typ           TypeReference
	isConditional bool

	description     Optional[string]
	isDeprecated    Optional[bool]
	arguments       Optional[[]Argument]
	subFields       Optional[[]SelectionField]
	fragmentSpreads Optional[[]string]
	inlineFragments Optional[[]InlineFragment]
}

// ResponseName is the key the field appears under in the response (its alias, if any)
func (f SelectionField) ResponseName() string { return f.responseName }

// FieldName is the schema field being selected
func (f SelectionField) FieldName() string { return f.fieldName }

func (f SelectionField) Type() TypeReference { return f.typ }

// IsConditional reports whether the field is under @include or @skip
func (f SelectionField) IsConditional() bool { return f.isConditional }

func (f SelectionField) Description() Optional[string] { return f.description }

func (f SelectionField) IsDeprecated() Optional[bool] { return f.isDeprecated }

func (f SelectionField) Arguments() Optional[[]Argument] { return cloneSlice(f.arguments) }

func (f SelectionField) SubFields() Optional[[]SelectionField] { return cloneSlice(f.subFields) }

// FragmentSpreads are the names of fragments spread into this field's
// selection set. Names are not resolved to fragment bodies.
func (f SelectionField) FragmentSpreads() Optional[[]string] { return cloneSlice(f.fragmentSpreads) }

func (f SelectionField) InlineFragments() Optional[[]InlineFragment] {
	return cloneSlice(f.inlineFragments)
}

// IsAliased reports whether the response name differs from the field name
func (f SelectionField) IsAliased() bool {
	return f.responseName != f.fieldName
}

// UnmarshalJSON implements json.Unmarshaler
func (f *SelectionField) UnmarshalJSON(data []byte) error {
	parsed, err := ParseField(data)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Argument is a field argument. Value is the raw JSON the tool emitted, which
// may be a literal or a {"kind":"Variable"} reference.
type Argument struct {
	name  string
	value json.RawMessage
	typ   TypeReference
}

func (a Argument) Name() string { return a.name }

func (a Argument) Value() json.RawMessage { return append(json.RawMessage(nil), a.value...) }

func (a Argument) Type() TypeReference { return a.typ }

// InlineFragment is a "... on Type { }" selection
type InlineFragment struct {
	typeCondition   string
	possibleTypes   []string
	fields          []SelectionField
	fragmentSpreads []string
}

func (i InlineFragment) TypeCondition() string { return i.typeCondition }

func (i InlineFragment) PossibleTypes() []string { return append([]string(nil), i.possibleTypes...) }

func (i InlineFragment) Fields() []SelectionField { return append([]SelectionField(nil), i.fields...) }

func (i InlineFragment) FragmentSpreads() []string {
	return append([]string(nil), i.fragmentSpreads...)
}
