package executor

import (
	"slices"

	"github.com/hanpama/resolverlog/internal/language"
	"github.com/hanpama/resolverlog/internal/schema"
)

// collectedFieldMap groups fields by response name in query order.
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func (m *collectedFieldMap) add(responseName string, field *language.Field) {
	if i, ok := m.index[responseName]; ok {
		m.fields[i].Fields = append(m.fields[i].Fields, field)
		return
	}
	m.index[responseName] = len(m.fields)
	m.fields = append(m.fields, collectedField{ResponseName: responseName, Fields: []*language.Field{field}})
}

func (m *collectedFieldMap) orderedFields() []collectedField {
	return m.fields
}

// collectFields applies @skip/@include and fragment type conditions to a
// selection set for one concrete object type.
func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) *collectedFieldMap {
	grouped := &collectedFieldMap{index: make(map[string]int)}
	collectFieldsInto(state, objectType, selectionSet, grouped, make(map[string]bool))
	return grouped
}

func collectFieldsInto(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, grouped *collectedFieldMap, visited map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			name := sel.Alias
			if name == "" {
				name = sel.Name
			}
			grouped.add(name, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			if !doesFragmentTypeApply(state.schema, objectType, sel.TypeCondition) {
				continue
			}
			collectFieldsInto(state, objectType, sel.SelectionSet, grouped, visited)

		case *language.FragmentSpread:
			if !shouldIncludeNode(state, sel.Directives) || visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true

			def := state.document.Fragments.ForName(sel.Name)
			if def == nil || !shouldIncludeNode(state, def.Directives) {
				continue
			}
			if !doesFragmentTypeApply(state.schema, objectType, def.TypeCondition) {
				continue
			}
			collectFieldsInto(state, objectType, def.SelectionSet, grouped, visited)
		}
	}
}

// shouldIncludeNode evaluates @skip and @include.
func shouldIncludeNode(state *executionState, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveArgument(state, skip, "if").(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveArgument(state, include, "if").(bool); ok && !v {
			return false
		}
	}
	return true
}

func directiveArgument(state *executionState, directive *language.Directive, name string) any {
	if arg := directive.Arguments.ForName(name); arg != nil {
		return valueFromAST(arg.Value, state.variables)
	}
	return nil
}

// doesFragmentTypeApply reports whether a fragment with the given type
// condition applies to objectType. The condition may name the object type
// itself or an interface or union it belongs to.
func doesFragmentTypeApply(sch *schema.Schema, objectType *schema.Type, typeCondition string) bool {
	if typeCondition == "" || typeCondition == objectType.Name {
		return true
	}
	cond := sch.Types[typeCondition]
	if cond == nil {
		return false
	}
	switch cond.Kind {
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return isPossibleType(cond, objectType)
	}
	return false
}

func isPossibleType(abstractType, objectType *schema.Type) bool {
	return slices.Contains(abstractType.PossibleTypes, objectType.Name) ||
		slices.Contains(objectType.Interfaces, abstractType.Name)
}
