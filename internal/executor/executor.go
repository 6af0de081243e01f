package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hanpama/resolverlog/internal/language"
	"github.com/hanpama/resolverlog/internal/resolver"
	"github.com/hanpama/resolverlog/internal/schema"
)

// executionState holds the state of one operation.
type executionState struct {
	ctx       context.Context
	runtime   Runtime
	schema    *schema.Schema
	document  *language.QueryDocument
	variables map[string]any
	pending   []asyncTask
	errors    []GraphQLError
	// response paths set to null by Non-Null propagation
	nullified map[string]struct{}
}

// asyncTask is a queued async field together with what is needed to
// complete its result.
type asyncTask struct {
	task   AsyncResolveTask
	path   Path
	typ    *schema.TypeRef
	fields []*language.Field
	// nullable is the nearest ancestor that may be set to null when this
	// field is Non-Null and fails. Empty for root fields.
	nullable Path
}

// asyncPending marks a response slot filled later by a batch result.
type asyncPending struct{}

// Executor runs operations against a schema with a Runtime.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// Schema returns the schema the executor was built with.
func (e *Executor) Schema() *schema.Schema { return e.schema }

// ExecuteRequest executes the named operation in document. An empty
// operationName selects the only operation of the document.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := getOperation(document, operationName)
	if operation == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}

	variables, err := coerceVariableValues(operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	case language.Subscription:
		rootType = e.schema.GetSubscriptionType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}
	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	state := &executionState{
		ctx:       ctx,
		runtime:   e.runtime,
		schema:    e.schema,
		document:  document,
		variables: variables,
		errors:    []GraphQLError{},
		nullified: make(map[string]struct{}),
	}

	data := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{}, Path{})
	for len(state.pending) > 0 {
		tasks := state.takePending()
		results := state.batch(tasks)
		for i, r := range results {
			completeAsyncField(state, tasks[i], r, data)
		}
	}
	return &ExecutionResult{Data: data, Errors: state.errors}
}

// executeSelectionSet executes the fields of one object value. Sync fields
// are resolved and completed immediately; async fields are queued and
// hold a placeholder until their batch runs.
//
// It returns nil when a Non-Null field below a non-root object ends up
// null, so the caller propagates the null upward.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path, nullable Path) map[string]any {
	result := make(map[string]any)

	for _, cf := range collectFields(state, objectType, selectionSet).orderedFields() {
		fieldPath := appendPath(path, cf.ResponseName)
		name := cf.Fields[0].Name

		if name == "__typename" {
			result[cf.ResponseName] = objectType.Name
			continue
		}
		fieldDef := objectType.GetField(name)
		if fieldDef == nil {
			state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", name, objectType.Name), fieldPath)
			continue
		}

		value := executeField(state, objectType, fieldDef, objectValue, cf.Fields, fieldPath, nullable)
		if isNullish(value) {
			if schema.IsNonNull(fieldDef.Type) && len(path) > 0 {
				state.markNullified(path)
				return nil
			}
			value = nil
		}
		result[cf.ResponseName] = value
	}
	return result
}

func executeField(state *executionState, objectType *schema.Type, fieldDef *schema.Field, source any, fields []*language.Field, path, nullable Path) any {
	args := coerceArgumentValues(state, fieldDef, fields[0].Arguments, path)
	info := resolver.Info{
		ParentType: objectType.Name,
		FieldName:  fieldDef.Name,
		Path:       []any(path),
		ReturnType: fieldDef.Type.String(),
	}

	if fieldDef.Async {
		state.pending = append(state.pending, asyncTask{
			task:     AsyncResolveTask{Info: info, Source: source, Args: args},
			path:     path,
			typ:      fieldDef.Type,
			fields:   fields,
			nullable: nullable,
		})
		return asyncPending{}
	}

	value, err := state.runtime.ResolveSync(state.ctx, info, source, args)
	if err != nil {
		state.addError(err.Error(), path)
		value = nil
	}
	return completeValue(state, fieldDef.Type, fields, value, path, nullable)
}

// takePending returns the queued tasks that are still live and clears the
// queue.
func (s *executionState) takePending() []asyncTask {
	live := make([]asyncTask, 0, len(s.pending))
	for _, at := range s.pending {
		if !s.isNullified(at.path) {
			live = append(live, at)
		}
	}
	s.pending = nil
	return live
}

// batch runs one BatchResolveAsync call and returns one result per task.
func (s *executionState) batch(tasks []asyncTask) []AsyncResolveResult {
	results := make([]AsyncResolveResult, len(tasks))
	if err := s.ctx.Err(); err != nil {
		for i := range results {
			results[i].Error = err
		}
		return results
	}

	in := make([]AsyncResolveTask, len(tasks))
	for i, at := range tasks {
		in[i] = at.task
	}
	out := s.runtime.BatchResolveAsync(s.ctx, in)
	for i := range results {
		if i < len(out) {
			results[i] = out[i]
			continue
		}
		results[i].Error = fmt.Errorf("runtime returned %d results for %d tasks", len(out), len(tasks))
	}
	return results
}

// completeAsyncField completes one batch result and writes it into data.
func completeAsyncField(state *executionState, at asyncTask, res AsyncResolveResult, data map[string]any) {
	if state.isNullified(at.path) {
		return
	}

	var completed any
	if res.Error != nil {
		state.addError(res.Error.Error(), at.path)
	} else {
		completed = completeValue(state, at.typ, at.fields, res.Value, at.path, at.nullable)
	}

	if isNullish(completed) {
		if schema.IsNonNull(at.typ) {
			target := at.nullable
			if len(target) == 0 {
				target = topLevelFieldPath(at.path)
			}
			setValueAtPath(data, target, nil)
			state.markNullified(target)
			return
		}
		completed = nil
	}
	setValueAtPath(data, at.path, completed)
}

func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(operationName)
}

func (s *executionState) addError(message string, path Path) {
	s.errors = append(s.errors, GraphQLError{Message: message, Path: path})
}

func (s *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range s.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// isNullish reports nil interfaces and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
