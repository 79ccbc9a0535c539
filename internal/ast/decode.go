package ast

import (
	"fmt"

	"github.com/buger/jsonparser"
)

// ParseField decodes a single selection field
func ParseField(data []byte) (SelectionField, error) {
	return parseField(data, jsonparser.Object, "")
}

// ParseDocument decodes the full --target=json output
func ParseDocument(data []byte) (*Document, error) {
	obj := readObject(data, jsonparser.Object, "")
	doc := &Document{
		operations: optionalList(obj, "operations", parseOperation).OrElse(nil),
		fragments:  optionalList(obj, "fragments", parseFragment).OrElse(nil),
	}
	if obj.err != nil {
		return nil, obj.err
	}
	return doc, nil
}

func parseField(data []byte, dataType jsonparser.ValueType, path string) (SelectionField, error) {
	obj := readObject(data, dataType, path)
	f := SelectionField{
		responseName:    obj.requiredString("responseName"),
		fieldName:       obj.requiredString("fieldName"),
		typ:             obj.requiredType("type"),
		isConditional:   obj.optionalBool("isConditional").OrElse(false),
		description:     obj.optionalString("description"),
		isDeprecated:    obj.optionalBool("isDeprecated"),
		arguments:       optionalList(obj, "args", parseArgument),
		subFields:       optionalList(obj, "fields", parseField),
		fragmentSpreads: obj.stringSet("fragmentSpreads"),
		inlineFragments: optionalList(obj, "inlineFragments", parseInlineFragment),
	}
	if obj.err != nil {
		return SelectionField{}, obj.err
	}
	return f, nil
}

func parseArgument(data []byte, dataType jsonparser.ValueType, path string) (Argument, error) {
	obj := readObject(data, dataType, path)
	a := Argument{
		name:  obj.requiredString("name"),
		value: obj.requiredRaw("value"),
		typ:   obj.requiredType("type"),
	}
	return a, obj.err
}

func parseInlineFragment(data []byte, dataType jsonparser.ValueType, path string) (InlineFragment, error) {
	obj := readObject(data, dataType, path)
	i := InlineFragment{
		typeCondition:   obj.requiredString("typeCondition"),
		possibleTypes:   obj.optionalStrings("possibleTypes").OrElse(nil),
		fields:          optionalList(obj, "fields", parseField).OrElse(nil),
		fragmentSpreads: obj.stringSet("fragmentSpreads").OrElse(nil),
	}
	return i, obj.err
}

func parseOperation(data []byte, dataType jsonparser.ValueType, path string) (Operation, error) {
	obj := readObject(data, dataType, path)
	o := Operation{
		name:                obj.requiredString("operationName"),
		operationType:       obj.requiredString("operationType"),
		rootType:            obj.optionalString("rootType").OrElse(""),
		filePath:            obj.optionalString("filePath").OrElse(""),
		source:              obj.optionalString("source").OrElse(""),
		operationID:         obj.optionalString("operationId"),
		fields:              optionalList(obj, "fields", parseField).OrElse(nil),
		fragmentSpreads:     obj.stringSet("fragmentSpreads").OrElse(nil),
		fragmentsReferenced: obj.stringSet("fragmentsReferenced").OrElse(nil),
	}
	return o, obj.err
}

func parseFragment(data []byte, dataType jsonparser.ValueType, path string) (Fragment, error) {
	obj := readObject(data, dataType, path)
	f := Fragment{
		name:            obj.requiredString("fragmentName"),
		typeCondition:   obj.requiredString("typeCondition"),
		possibleTypes:   obj.optionalStrings("possibleTypes").OrElse(nil),
		filePath:        obj.optionalString("filePath").OrElse(""),
		source:          obj.optionalString("source").OrElse(""),
		fields:          optionalList(obj, "fields", parseField).OrElse(nil),
		fragmentSpreads: obj.stringSet("fragmentSpreads").OrElse(nil),
		inlineFragments: optionalList(obj, "inlineFragments", parseInlineFragment).OrElse(nil),
	}
	return f, obj.err
}

type jsonValue struct {
	data     []byte
	dataType jsonparser.ValueType
}

// objectReader holds the members of one JSON object. The first error is
// sticky: once set, every accessor returns a zero value.
type objectReader struct {
	path   string
	values map[string]jsonValue
	err    error
}

func readObject(data []byte, dataType jsonparser.ValueType, path string) *objectReader {
	r := &objectReader{path: path, values: make(map[string]jsonValue)}
	if dataType != jsonparser.Object {
		r.err = malformed(path, "expected an object, got %s", dataType)
		return r
	}

	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		r.values[string(key)] = jsonValue{data: value, dataType: dataType}
		return nil
	})
	if err != nil {
		r.err = malformed(path, "expected an object: %v", err)
	}
	return r
}

func (r *objectReader) at(key string) string {
	if r.path == "" {
		return key
	}
	return r.path + "." + key
}

// lookup returns the value for key, treating null as absent
func (r *objectReader) lookup(key string) (jsonValue, bool) {
	if r.err != nil {
		return jsonValue{}, false
	}
	v, ok := r.values[key]
	if !ok || v.dataType == jsonparser.Null {
		return jsonValue{}, false
	}
	return v, true
}

func (r *objectReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *objectReader) requiredString(key string) string {
	if r.err != nil {
		return ""
	}
	s, ok := r.optionalString(key).Get()
	if !ok && r.err == nil {
		r.fail(malformed(r.at(key), "is required"))
	}
	return s
}

func (r *objectReader) optionalString(key string) Optional[string] {
	v, ok := r.lookup(key)
	if !ok {
		return None[string]()
	}
	if v.dataType != jsonparser.String {
		r.fail(malformed(r.at(key), "expected a string, got %s", v.dataType))
		return None[string]()
	}
	s, err := jsonparser.ParseString(v.data)
	if err != nil {
		r.fail(malformed(r.at(key), "invalid string: %v", err))
		return None[string]()
	}
	return Some(s)
}

func (r *objectReader) optionalBool(key string) Optional[bool] {
	v, ok := r.lookup(key)
	if !ok {
		return None[bool]()
	}
	if v.dataType != jsonparser.Boolean {
		r.fail(malformed(r.at(key), "expected a boolean, got %s", v.dataType))
		return None[bool]()
	}
	b, err := jsonparser.ParseBoolean(v.data)
	if err != nil {
		r.fail(malformed(r.at(key), "invalid boolean: %v", err))
		return None[bool]()
	}
	return Some(b)
}

func (r *objectReader) requiredType(key string) TypeReference {
	s := r.requiredString(key)
	if r.err != nil {
		return TypeReference{}
	}
	t, err := ParseTypeReference(s)
	if err != nil {
		r.fail(malformed(r.at(key), "%v", err))
		return TypeReference{}
	}
	return t
}

// requiredRaw returns the value as JSON text. null is a valid argument value here.
func (r *objectReader) requiredRaw(key string) []byte {
	if r.err != nil {
		return nil
	}
	v, ok := r.values[key]
	if !ok {
		r.fail(malformed(r.at(key), "is required"))
		return nil
	}
	if v.dataType == jsonparser.String {
		// jsonparser strips the quotes but leaves escapes intact
		raw := make([]byte, 0, len(v.data)+2)
		raw = append(raw, '"')
		raw = append(raw, v.data...)
		return append(raw, '"')
	}
	return append([]byte(nil), v.data...)
}

func (r *objectReader) optionalStrings(key string) Optional[[]string] {
	return optionalList(r, key, func(data []byte, dataType jsonparser.ValueType, path string) (string, error) {
		if dataType != jsonparser.String {
			return "", malformed(path, "expected a string, got %s", dataType)
		}
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return "", malformed(path, "invalid string: %v", err)
		}
		return s, nil
	})
}

// stringSet is optionalStrings with duplicates dropped, keeping first-seen order
func (r *objectReader) stringSet(key string) Optional[[]string] {
	values, ok := r.optionalStrings(key).Get()
	if !ok {
		return None[[]string]()
	}
	seen := make(map[string]struct{}, len(values))
	set := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		set = append(set, v)
	}
	return Some(set)
}

func optionalList[T any](r *objectReader, key string, parse func([]byte, jsonparser.ValueType, string) (T, error)) Optional[[]T] {
	v, ok := r.lookup(key)
	if !ok {
		return None[[]T]()
	}
	if v.dataType != jsonparser.Array {
		r.fail(malformed(r.at(key), "expected an array, got %s", v.dataType))
		return None[[]T]()
	}

	items := []T{}
	index := 0
	var itemErr error
	_, err := jsonparser.ArrayEach(v.data, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		defer func() { index++ }()
		if itemErr != nil {
			return
		}
		path := fmt.Sprintf("%s[%d]", r.at(key), index)
		if err != nil {
			itemErr = malformed(path, "%v", err)
			return
		}
		item, err := parse(value, dataType, path)
		if err != nil {
			itemErr = err
			return
		}
		items = append(items, item)
	})
	if itemErr != nil {
		r.fail(itemErr)
		return None[[]T]()
	}
	if err != nil {
		r.fail(malformed(r.at(key), "invalid array: %v", err))
		return None[[]T]()
	}

	return Some(items)
}
