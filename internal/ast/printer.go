package ast

import (
	"fmt"
	"io"
	"strings"
)

// treeWriter writes lines prefixed by the current indentation
type treeWriter struct {
	sb     strings.Builder
	indent string
	level  int
}

func (w *treeWriter) line(format string, args ...any) {
	w.sb.WriteString(strings.Repeat(w.indent, w.level))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteString("\n")
}

func (w *treeWriter) block(content func()) {
	w.level++
	content()
	w.level--
}

// Print renders a document as an indented outline of its operations and fragments
func Print(out io.Writer, doc *Document) error {
	w := &treeWriter{indent: "  "}

	for _, op := range doc.operations {
		header := fmt.Sprintf("%s %s", op.operationType, op.name)
		if id, ok := op.operationID.Get(); ok {
			header += " [" + id + "]"
		}
		if op.filePath != "" {
			header += " (" + op.filePath + ")"
		}
		w.line("%s", header)
		w.block(func() {
			printSelections(w, op.fields, op.fragmentSpreads, nil)
		})
	}

	for _, frag := range doc.fragments {
		w.line("fragment %s on %s", frag.name, frag.typeCondition)
		w.block(func() {
			printSelections(w, frag.fields, frag.fragmentSpreads, frag.inlineFragments)
		})
	}

	_, err := io.WriteString(out, w.sb.String())
	return err
}

// PrintFields renders a selection set as an indented outline
func PrintFields(out io.Writer, fields []SelectionField) error {
	w := &treeWriter{indent: "  "}
	printSelections(w, fields, nil, nil)
	_, err := io.WriteString(out, w.sb.String())
	return err
}

func printSelections(w *treeWriter, fields []SelectionField, spreads []string, inlines []InlineFragment) {
	for _, f := range fields {
		printField(w, f)
	}
	for _, name := range spreads {
		w.line("...%s", name)
	}
	for _, inline := range inlines {
		w.line("... on %s", inline.typeCondition)
		w.block(func() {
			printSelections(w, inline.fields, inline.fragmentSpreads, nil)
		})
	}
}

func printField(w *treeWriter, f SelectionField) {
	var sb strings.Builder
	if f.IsAliased() {
		sb.WriteString(f.responseName + ": ")
	}
	sb.WriteString(f.fieldName)

	if args, ok := f.arguments.Get(); ok && len(args) > 0 {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, a.name+": "+string(a.value))
		}
		sb.WriteString("(" + strings.Join(parts, ", ") + ")")
	}

	sb.WriteString(" -> " + f.typ.String())
	if f.isConditional {
		sb.WriteString(" @conditional")
	}
	if f.isDeprecated.OrElse(false) {
		sb.WriteString(" @deprecated")
	}

	w.line("%s", sb.String())
	w.block(func() {
		printSelections(w, f.subFields.OrElse(nil), f.fragmentSpreads.OrElse(nil), f.inlineFragments.OrElse(nil))
	})
}
