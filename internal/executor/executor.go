package executor

import (
	"context"
	"fmt"
	"reflect"

	language "github.com/graphload/graphload/internal/language"
	loader "github.com/graphload/graphload/internal/loader"
	resolver "github.com/graphload/graphload/internal/resolver"
	schema "github.com/graphload/graphload/internal/schema"
)

// defaultMaxRounds bounds the drain loop so a placeholder cycle cannot spin
// forever; real queries stay far below it since rounds track async depth.
const defaultMaxRounds = 256

// Executor drives query execution: it expands immediately-available work,
// collects suspended field resolutions, and alternates batch rounds with
// resumption until the response tree is fully materialized.
type Executor struct {
	runtime   Runtime
	schema    *schema.Schema
	loaders   *loader.Registry
	maxRounds int
}

type Option func(*Executor)

// WithLoaders installs the batch-function registry; each request gets a
// fresh per-walk Loader built from it.
func WithLoaders(reg *loader.Registry) Option {
	return func(e *Executor) { e.loaders = reg }
}

// WithMaxRounds overrides the drain-round safety bound.
func WithMaxRounds(n int) Option {
	return func(e *Executor) { e.maxRounds = n }
}

func NewExecutor(runtime Runtime, sch *schema.Schema, opts ...Option) *Executor {
	e := &Executor{runtime: runtime, schema: sch, maxRounds: defaultMaxRounds}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// executionState holds the mutable state of one execution walk.
type executionState struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	loader         *loader.Loader
	suspended      []*suspension
	errors         []GraphQLError
	// prefixes of paths that have been nullified (tombstoned)
	nullifiedPrefix map[string]struct{}
	// rootNullified is set when Non-Null propagation reaches the response
	// root; data becomes null and all remaining suspensions are dead.
	rootNullified bool
}

// suspension is one field resolution parked until the next batch round,
// waiting either on a loader slot or on a thunk to be resumed. nullAt is the
// path of the nearest nullable ancestor position, recorded while descending
// so Non-Null propagation on resume lands exactly where the synchronous walk
// would have put it; an empty nullAt means propagation reaches the root.
type suspension struct {
	pending   *loader.Pending
	thunk     resolver.Thunk
	source    any
	args      map[string]any
	pos       resolver.Position
	path      Path
	nullAt    Path
	fieldType *schema.TypeRef
	fields    []*language.Field
	locations []language.Location
}

// deferredMark is the in-tree placeholder for a suspended field; it is
// always overwritten before the walk finishes.
type deferredMark struct{}

// ExecuteRequest runs one operation from the document to completion. The
// returned result may hold partial data alongside located errors; a single
// field failure never aborts the walk.
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

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error(), Err: err}}}
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

	var walkLoader *loader.Loader
	if e.loaders != nil {
		walkLoader = e.loaders.NewLoader()
	} else {
		walkLoader = loader.New()
	}
	ctx = loader.NewContext(ctx, walkLoader)

	state := &executionState{
		runtime:         e.runtime,
		schema:          e.schema,
		document:        document,
		variableValues:  coercedVariableValues,
		context:         ctx,
		loader:          walkLoader,
		errors:          []GraphQLError{},
		nullifiedPrefix: make(map[string]struct{}),
	}

	responseRoot := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{}, Path{})
	if responseRoot == nil {
		// A Non-Null root field came up null; propagation passes the root
		// and the whole data payload is null.
		return &ExecutionResult{Errors: state.errors}
	}

	// Drain loop: one batch round per level of suspended work. Resuming a
	// suspension can suspend again deeper down, so loop until quiet.
	rounds := 0
	for len(state.suspended) > 0 && !state.rootNullified {
		if rounds == e.maxRounds {
			state.addError(fmt.Sprintf("execution aborted after %d batch rounds", rounds), nil)
			for _, s := range state.suspended {
				if !state.hasNullifiedPrefix(s.path) {
					writeNullAtSuspension(state, s, responseRoot)
				}
			}
			break
		}
		state.loader.Run(ctx)
		rounds++

		batch := state.suspended
		state.suspended = nil
		for _, s := range batch {
			if state.rootNullified {
				break
			}
			resumeSuspension(state, s, responseRoot)
		}
	}

	var data any = responseRoot
	if state.rootNullified {
		data = nil
	}
	return &ExecutionResult{Data: data, Errors: state.errors, Rounds: rounds}
}

// executeSelectionSet executes a selection set without draining the loader.
// A nil return means a Non-Null field came up null and the whole set is
// discarded; the caller propagates further. nullAt carries the nearest
// nullable ancestor position for suspensions created underneath.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path, nullAt Path) map[string]any {
	groupedFields := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any)

	for _, collected := range groupedFields.orderedFields() {
		responseName := collected.ResponseName
		fields := collected.Fields
		fieldPath := appendPath(path, responseName)

		fieldResult := executeFieldGroup(state, objectType, objectValue, fields, fieldPath, nullAt)

		if fields[0].Name == "__typename" {
			resultMap[responseName] = fieldResult
			continue
		}

		fieldDef := objectType.Field(fields[0].Name)
		if fieldDef == nil {
			// Unknown field; error was recorded in executeFieldGroup.
			continue
		}

		if schema.IsNonNull(fieldDef.Type) && isNullish(fieldResult) {
			// This set is discarded; suspensions queued under it are dead.
			state.markNullifiedPrefix(path)
			return nil
		}

		// Coerce typed-nil to interface-nil for nullable fields.
		if isNullish(fieldResult) {
			resultMap[responseName] = nil
		} else {
			resultMap[responseName] = fieldResult
		}
	}

	return resultMap
}

func executeFieldGroup(state *executionState, objectType *schema.Type, objectValue any, fields []*language.Field, path Path, nullAt Path) any {
	field := fields[0]

	if field.Name == "__typename" {
		return objectType.Name
	}

	fieldDef := objectType.Field(field.Name)
	if fieldDef == nil {
		state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", field.Name, objectType.Name), path)
		return nil
	}

	// A nullable field absorbs Non-Null propagation from its subtree.
	if !schema.IsNonNull(fieldDef.Type) {
		nullAt = path
	}

	argumentValues := coerceArgumentValues(fieldDef, field.Arguments, state.variableValues, state, path)
	pos := resolver.Position{ParentType: objectType.Name, Field: field.Name}
	locations := fieldLocations(fields)

	value, err := state.runtime.ResolveField(state.context, objectValue, argumentValues, pos)
	if err != nil {
		state.addResolveError(err, path, locations)
		return nil
	}

	return dispatchValue(state, value, objectValue, argumentValues, pos, path, nullAt, fieldDef.Type, fields, locations)
}

// dispatchValue either completes value now or parks it as a suspension. A
// memoized loader slot that is already filled settles inline without adding
// a round.
func dispatchValue(state *executionState, value any, source any, args map[string]any, pos resolver.Position, path Path, nullAt Path, fieldType *schema.TypeRef, fields []*language.Field, locations []language.Location) any {
	for {
		switch v := value.(type) {
		case *loader.Pending:
			if v.Done() {
				settled, err := v.Result()
				if err != nil {
					state.addResolveError(err, path, locations)
					return nil
				}
				value = settled
				continue
			}
			state.suspended = append(state.suspended, &suspension{
				pending: v, source: source, args: args, pos: pos,
				path: path, nullAt: nullAt, fieldType: fieldType, fields: fields, locations: locations,
			})
			return deferredMark{}
		case resolver.Thunk:
			state.suspended = append(state.suspended, &suspension{
				thunk: v, source: source, args: args, pos: pos,
				path: path, nullAt: nullAt, fieldType: fieldType, fields: fields, locations: locations,
			})
			return deferredMark{}
		default:
			return completeValue(state, fieldType, fields, value, path, nullAt)
		}
	}
}

// resumeSuspension settles one parked field after a batch round and writes
// its completed value into the response tree, honoring Non-Null propagation
// and tombstoned prefixes.
func resumeSuspension(state *executionState, s *suspension, responseRoot map[string]any) {
	if state.hasNullifiedPrefix(s.path) {
		return
	}

	var value any
	var err error
	if s.pending != nil {
		value, err = s.pending.Result()
	} else {
		value, err = s.thunk(state.context, s.source, s.args, s.pos)
	}
	if err != nil {
		state.addResolveError(err, s.path, s.locations)
		writeNullAtSuspension(state, s, responseRoot)
		return
	}

	completed := dispatchValue(state, value, s.source, s.args, s.pos, s.path, s.nullAt, s.fieldType, s.fields, s.locations)
	if _, suspendedAgain := completed.(deferredMark); suspendedAgain {
		return
	}

	if schema.IsNonNull(s.fieldType) && isNullish(completed) {
		writeNullAtSuspension(state, s, responseRoot)
		return
	}
	if isNullish(completed) {
		setValueAtPath(responseRoot, s.path, nil)
	} else {
		setValueAtPath(responseRoot, s.path, completed)
	}
}

// writeNullAtSuspension nulls a settled-as-null suspension: in place for a
// nullable field, at the nearest nullable ancestor for a Non-Null one. When
// no nullable ancestor exists the whole data payload goes null.
func writeNullAtSuspension(state *executionState, s *suspension, responseRoot map[string]any) {
	if !schema.IsNonNull(s.fieldType) {
		setValueAtPath(responseRoot, s.path, nil)
		return
	}
	if len(s.nullAt) == 0 {
		state.rootNullified = true
		return
	}
	setValueAtPath(responseRoot, s.nullAt, nil)
	state.markNullifiedPrefix(s.nullAt)
}

// completeValue completes a resolved value against its declared type.
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path, nullAt Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", path.String()), path)
			}
			return nil
		}
		completed := completeValue(state, schema.Unwrap(fieldType), fields, result, path, nullAt)
		if isNullish(completed) {
			// Error already recorded at the original path; propagate only.
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path, nullAt)
	}

	namedType := schema.GetNamedType(fieldType)
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), path)
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := state.runtime.SerializeLeaf(state.context, namedType, result)
		if err != nil {
			state.addResolveError(err, path, nil)
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return completeObjectValue(state, typeObj, fields, result, path, nullAt)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return completeAbstractValue(state, namedType, fields, result, path, nullAt)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path)
		return nil
	}
}

func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path Path, nullAt Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		itemPath := appendPath(path, i)
		itemNullAt := nullAt
		if !schema.IsNonNull(inner) {
			itemNullAt = itemPath
		}
		v := completeValue(state, inner, fields, item, itemPath, itemNullAt)
		if schema.IsNonNull(inner) && isNullish(v) {
			// Null item under a Non-Null element type nullifies the list;
			// the inner completion already recorded the error.
			state.markNullifiedPrefix(path)
			return nil
		}
		completed[i] = v
	}
	return completed
}

func completeObjectValue(state *executionState, objectType *schema.Type, fields []*language.Field, result any, path Path, nullAt Path) any {
	return executeSelectionSet(state, objectType, mergeSelectionSets(fields), result, path, nullAt)
}

func completeAbstractValue(state *executionState, abstractTypeName string, fields []*language.Field, result any, path Path, nullAt Path) any {
	typeName, err := state.runtime.ResolveType(state.context, abstractTypeName, result)
	if err != nil {
		state.addResolveError(err, path, nil)
		return nil
	}
	objectType := state.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		state.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractTypeName, typeName), path)
		return nil
	}
	return completeObjectValue(state, objectType, fields, result, path, nullAt)
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

// Prefix tombstone helpers.
func (s *executionState) markNullifiedPrefix(p Path) {
	if key := p.String(); key != "" {
		s.nullifiedPrefix[key] = struct{}{}
	}
}

func (s *executionState) hasNullifiedPrefix(p Path) bool {
	if len(s.nullifiedPrefix) == 0 {
		return false
	}
	cur := Path{}
	for _, elem := range p {
		cur = append(cur, elem)
		if _, ok := s.nullifiedPrefix[cur.String()]; ok {
			return true
		}
	}
	return false
}

func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" && len(document.Operations) == 1 {
		return document.Operations[0]
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op
		}
	}
	return nil
}

func (s *executionState) addError(message string, path Path) {
	s.errors = append(s.errors, GraphQLError{Message: message, Path: path})
}

func (s *executionState) addResolveError(err error, path Path, locations []language.Location) {
	s.errors = append(s.errors, GraphQLError{Message: err.Error(), Path: path, Locations: locations, Err: err})
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (s *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range s.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

func fieldLocations(fields []*language.Field) []language.Location {
	var locs []language.Location
	for _, f := range fields {
		if f.Position != nil {
			locs = append(locs, language.Location{Line: f.Position.Line, Column: f.Position.Column})
		}
	}
	return locs
}

// setValueAtPath writes value into the response tree at path, materializing
// intermediate containers as needed.
func setValueAtPath(responseRoot map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	if len(path) == 1 {
		if key, ok := path[0].(string); ok {
			responseRoot[key] = value
		}
		return
	}
	current := any(responseRoot)
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			next, exists := m[e]
			if !exists {
				next = make(map[string]any)
				m[e] = next
			}
			current = next
		case int:
			slice, ok := current.([]any)
			if !ok {
				return
			}
			if e >= len(slice) {
				return
			}
			if slice[e] == nil {
				slice[e] = make(map[string]any)
			}
			current = slice[e]
		}
	}
	switch fe := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[fe] = value
		}
	case int:
		if slice, ok := current.([]any); ok && fe < len(slice) {
			slice[fe] = value
		}
	}
}

// mergeSelectionSets merges selection sets from multiple fields.
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
