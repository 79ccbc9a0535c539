package ast

// Document is the top level of apollo's --target=json output
type Document struct {
	operations []Operation
	fragments  []Fragment
}

func (d Document) Operations() []Operation { return append([]Operation(nil), d.operations...) }

func (d Document) Fragments() []Fragment { return append([]Fragment(nil), d.fragments...) }

// Fragment returns the fragment definition named name
func (d Document) Fragment(name string) (Fragment, bool) {
	for _, f := range d.fragments {
		if f.name == name {
			return f, true
		}
	}
	return Fragment{}, false
}

// Operation is a query, mutation or subscription
type Operation struct {
	name                string
	operationType       string
	rootType            string
	filePath            string
	source              string
	operationID         Optional[string]
	fields              []SelectionField
	fragmentSpreads     []string
	fragmentsReferenced []string
}

func (o Operation) Name() string { return o.name }

// OperationType is "query", "mutation" or "subscription"
func (o Operation) OperationType() string { return o.operationType }

func (o Operation) RootType() string { return o.rootType }

func (o Operation) FilePath() string { return o.filePath }

func (o Operation) Source() string { return o.source }

// OperationID is only present when apollo ran with --operationIdsPath
func (o Operation) OperationID() Optional[string] { return o.operationID }

func (o Operation) Fields() []SelectionField { return append([]SelectionField(nil), o.fields...) }

func (o Operation) FragmentSpreads() []string {
	return append([]string(nil), o.fragmentSpreads...)
}

// FragmentsReferenced lists every fragment the operation depends on, transitively
func (o Operation) FragmentsReferenced() []string {
	return append([]string(nil), o.fragmentsReferenced...)
}

// Fragment is a named fragment definition
type Fragment struct {
	name            string
	typeCondition   string
	possibleTypes   []string
	filePath        string
	source          string
	fields          []SelectionField
	fragmentSpreads []string
	inlineFragments []InlineFragment
}

func (f Fragment) Name() string { return f.name }

func (f Fragment) TypeCondition() string { return f.typeCondition }

func (f Fragment) PossibleTypes() []string { return append([]string(nil), f.possibleTypes...) }

func (f Fragment) FilePath() string { return f.filePath }

func (f Fragment) Source() string { return f.source }

func (f Fragment) Fields() []SelectionField { return append([]SelectionField(nil), f.fields...) }

func (f Fragment) FragmentSpreads() []string {
	return append([]string(nil), f.fragmentSpreads...)
}

func (f Fragment) InlineFragments() []InlineFragment {
	return append([]InlineFragment(nil), f.inlineFragments...)
}
