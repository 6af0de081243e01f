package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hanpama/resolverlog/internal/executor"
	"github.com/hanpama/resolverlog/internal/language"
	"github.com/hanpama/resolverlog/internal/resolver"
	"github.com/hanpama/resolverlog/internal/schema"
)

func mustSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(sdl)
	if err != nil {
		t.Fatalf("schema error: %v", err)
	}
	return sch
}

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

// prop resolves a field by reading it from a map source.
func prop(name string) executor.MockResolver {
	return func(_ context.Context, src any, _ map[string]any) (any, error) {
		return src.(map[string]any)[name], nil
	}
}

func execute(t *testing.T, rt executor.Runtime, sch *schema.Schema, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	return executor.NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, query), "", vars, nil)
}

// Pattern: Calls comparison + Result comparison
func TestRouting_SyncVsAsync(t *testing.T) {
	sch := mustSchema(t, `type Query { a: String  b: String @async }`)
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.a": executor.NewMockValueResolver("A"),
		"Query.b": executor.NewMockValueResolver("B"),
	})

	gotRes := execute(t, rt, sch, "{ a b }", nil)

	wantRes := &executor.ExecutionResult{
		Data:   map[string]any{"a": "A", "b": "B"},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []executor.Call{
		{Kind: "sync", ObjectType: "Query", Field: "a", Path: executor.Path{"a"}, Args: map[string]any{}},
		{Kind: "async", ObjectType: "Query", Field: "b", Path: executor.Path{"b"}, Args: map[string]any{}, BatchID: 1},
	}
	if diff := cmp.Diff(wantCalls, rt.GetCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Calls comparison
func TestRouting_OneBatchPerAsyncDepth(t *testing.T) {
	sch := mustSchema(t, `
type Query { root: Node @async }
type Node {
  id: ID!
  child: Node @async
  x: String @async
}`)
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.root": executor.NewMockValueResolver(map[string]any{"id": "r"}),
		"Node.id":    prop("id"),
		"Node.child": executor.NewMockValueResolver(map[string]any{"id": "c"}),
		"Node.x":     executor.NewMockValueResolver("X"),
	})

	gotRes := execute(t, rt, sch, "{ root { id child { x } x } }", nil)

	wantRes := &executor.ExecutionResult{
		Data: map[string]any{
			"root": map[string]any{"id": "r", "child": map[string]any{"x": "X"}, "x": "X"},
		},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	r := map[string]any{"id": "r"}
	c := map[string]any{"id": "c"}
	wantCalls := []executor.Call{
		{Kind: "async", ObjectType: "Query", Field: "root", Path: executor.Path{"root"}, Args: map[string]any{}, BatchID: 1},
		{Kind: "sync", ObjectType: "Node", Field: "id", Path: executor.Path{"root", "id"}, Source: r, Args: map[string]any{}},
		{Kind: "async", ObjectType: "Node", Field: "child", Path: executor.Path{"root", "child"}, Source: r, Args: map[string]any{}, BatchID: 2},
		{Kind: "async", ObjectType: "Node", Field: "x", Path: executor.Path{"root", "x"}, Source: r, Args: map[string]any{}, BatchID: 2},
		{Kind: "async", ObjectType: "Node", Field: "x", Path: executor.Path{"root", "child", "x"}, Source: c, Args: map[string]any{}, BatchID: 3},
	}
	if diff := cmp.Diff(wantCalls, rt.GetCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// infoRecorder captures the resolver.Info of every resolution.
type infoRecorder struct {
	*executor.MockRuntime
	infos []resolver.Info
}

func (r *infoRecorder) ResolveSync(ctx context.Context, info resolver.Info, source any, args map[string]any) (any, error) {
	r.infos = append(r.infos, info)
	return r.MockRuntime.ResolveSync(ctx, info, source, args)
}

func (r *infoRecorder) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	for _, task := range tasks {
		r.infos = append(r.infos, task.Info)
	}
	return r.MockRuntime.BatchResolveAsync(ctx, tasks)
}

func TestResolveInfo(t *testing.T) {
	sch := mustSchema(t, `
type Query { users: [User!]! @async }
type User { name: String }`)
	rt := &infoRecorder{MockRuntime: executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.users": executor.NewMockValueResolver([]any{map[string]any{"name": "Ada"}, map[string]any{"name": "Lin"}}),
		"User.name":   prop("name"),
	})}

	gotRes := execute(t, rt, sch, "{ users { name } }", nil)

	wantRes := &executor.ExecutionResult{
		Data:   map[string]any{"users": []any{map[string]any{"name": "Ada"}, map[string]any{"name": "Lin"}}},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantInfos := []resolver.Info{
		{ParentType: "Query", FieldName: "users", Path: []any{"users"}, ReturnType: "[User!]!"},
		{ParentType: "User", FieldName: "name", Path: []any{"users", 0, "name"}, ReturnType: "String"},
		{ParentType: "User", FieldName: "name", Path: []any{"users", 1, "name"}, ReturnType: "String"},
	}
	if diff := cmp.Diff(wantInfos, rt.infos); diff != "" {
		t.Fatalf("Info mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestErrors_LocatedPaths(t *testing.T) {
	t.Run("Nested", func(t *testing.T) {
		sch := mustSchema(t, `
type Query { obj: Obj }
type Obj { a: String }`)
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.obj": executor.NewMockValueResolver(map[string]any{}),
			"Obj.a":     executor.NewMockErrorResolver(errors.New("boom")),
		})

		gotRes := execute(t, rt, sch, "{ obj { a } }", nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"obj": map[string]any{"a": nil}},
			Errors: []executor.GraphQLError{{Message: "boom", Path: executor.Path{"obj", "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("List index in path", func(t *testing.T) {
		sch := mustSchema(t, `
type Query { objs: [Obj] }
type Obj { a: String }`)
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.objs": executor.NewMockValueResolver([]any{map[string]any{"idx": 0}, map[string]any{"idx": 1}}),
			"Obj.a": func(_ context.Context, src any, _ map[string]any) (any, error) {
				if src.(map[string]any)["idx"] == 1 {
					return nil, errors.New("boom")
				}
				return "A", nil
			},
		})

		gotRes := execute(t, rt, sch, "{ objs { a } }", nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"objs": []any{map[string]any{"a": "A"}, map[string]any{"a": nil}}},
			Errors: []executor.GraphQLError{{Message: "boom", Path: executor.Path{"objs", 1, "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Unknown field", func(t *testing.T) {
		sch := mustSchema(t, `type Query { a: String }`)
		gotRes := execute(t, executor.NewMockRuntime(nil), sch, "{ a nope }", nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"a": nil},
			Errors: []executor.GraphQLError{{Message: "Cannot query field 'nope' on type 'Query'", Path: executor.Path{"nope"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

// Pattern: Result comparison
func TestNonNull_Propagation(t *testing.T) {
	t.Run("Sync child nulls parent", func(t *testing.T) {
		sch := mustSchema(t, `
type Query { user: User }
type User { name: String! }`)
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.user": executor.NewMockValueResolver(map[string]any{}),
		})

		gotRes := execute(t, rt, sch, "{ user { name } }", nil)

		wantRes := &executor.ExecutionResult{
			Data: map[string]any{"user": nil},
			Errors: []executor.GraphQLError{
				{Message: "Cannot return null for non-nullable field user.name", Path: executor.Path{"user", "name"}},
			},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("List item violation", func(t *testing.T) {
		sch := mustSchema(t, `type Query { list: [String!] }`)
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.list": executor.NewMockValueResolver([]any{"A", nil, "B"}),
		})

		gotRes := execute(t, rt, sch, "{ list }", nil)

		wantRes := &executor.ExecutionResult{
			Data: map[string]any{"list": nil},
			Errors: []executor.GraphQLError{
				{Message: "Cannot return null for non-nullable field list[1]", Path: executor.Path{"list", 1}},
			},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Async child nulls nearest nullable ancestor", func(t *testing.T) {
		sch := mustSchema(t, `
type Query { feed: Feed }
type Feed { items: [Item] @async }
type Item { author: User! @async }
type User { name: String }`)
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.feed": executor.NewMockValueResolver(map[string]any{}),
			"Feed.items": executor.NewMockValueResolver([]any{map[string]any{"id": 1}, map[string]any{"id": 2}}),
			"Item.author": func(_ context.Context, src any, _ map[string]any) (any, error) {
				if src.(map[string]any)["id"] == 2 {
					return nil, errors.New("no author")
				}
				return map[string]any{"name": "Ada"}, nil
			},
			"User.name": prop("name"),
		})

		gotRes := execute(t, rt, sch, "{ feed { items { author { name } } } }", nil)

		wantRes := &executor.ExecutionResult{
			Data: map[string]any{
				"feed": map[string]any{"items": []any{
					map[string]any{"author": map[string]any{"name": "Ada"}},
					nil,
				}},
			},
			Errors: []executor.GraphQLError{{Message: "no author", Path: executor.Path{"feed", "items", 1, "author"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Nulled subtree drops queued tasks", func(t *testing.T) {
		sch := mustSchema(t, `
type Query { viewer: Viewer }
type Viewer {
  user: String! @async
  other: String @async
}`)
		rt := executor.NewMockRuntime(map[string]executor.MockResolver{
			"Query.viewer": executor.NewMockValueResolver(map[string]any{}),
			"Viewer.user":  executor.NewMockErrorResolver(errors.New("db down")),
			"Viewer.other": executor.NewMockValueResolver("O"),
		})

		gotRes := execute(t, rt, sch, "{ viewer { user other } }", nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"viewer": nil},
			Errors: []executor.GraphQLError{{Message: "db down", Path: executor.Path{"viewer", "user"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

const nodesSDL = `
type Query {
  nodes: [Node]
  search: SearchResult
}
interface Node { id: ID! }
type User implements Node { id: ID! name: String }
type Post implements Node { id: ID! title: String }
union SearchResult = User
`

func nodesRuntime() *executor.MockRuntime {
	return executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.nodes": executor.NewMockValueResolver([]any{
			map[string]any{"__typename": "User", "id": "u1", "name": "Ada"},
			map[string]any{"__typename": "Post", "id": "p1", "title": "Hi"},
		}),
		"Query.search": executor.NewMockValueResolver(map[string]any{"__typename": "User", "id": "u1", "name": "Ada"}),
		"User.id":      prop("id"),
		"User.name":    prop("name"),
		"Post.id":      prop("id"),
		"Post.title":   prop("title"),
	})
}

// Pattern: Result comparison
func TestAbstract_Fragments(t *testing.T) {
	sch := mustSchema(t, nodesSDL)
	query := `
{
  nodes {
    id
    ... on User { name }
    ... on Post { title }
    ...NodeBits
  }
}
fragment NodeBits on Node { __typename }`

	gotRes := execute(t, nodesRuntime(), sch, query, nil)

	wantRes := &executor.ExecutionResult{
		Data: map[string]any{"nodes": []any{
			map[string]any{"id": "u1", "name": "Ada", "__typename": "User"},
			map[string]any{"id": "p1", "title": "Hi", "__typename": "Post"},
		}},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestAbstract_ResolveTypeFailures(t *testing.T) {
	cases := []struct {
		name    string
		resolve func(any) (string, error)
		message string
	}{
		{"error", func(any) (string, error) { return "", errors.New("boom") }, "boom"},
		{"unknown type", func(any) (string, error) { return "Unknown", nil }, "Abstract type SearchResult must resolve to an Object type at runtime. Got: Unknown"},
		{"not a member", func(any) (string, error) { return "Post", nil }, "Runtime Object type Post is not a possible type for SearchResult"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rt := nodesRuntime()
			rt.SetTypeResolver(tc.resolve)

			gotRes := execute(t, rt, mustSchema(t, nodesSDL), "{ search { ... on User { name } } }", nil)

			wantRes := &executor.ExecutionResult{
				Data:   map[string]any{"search": nil},
				Errors: []executor.GraphQLError{{Message: tc.message, Path: executor.Path{"search"}}},
			}
			if diff := cmp.Diff(wantRes, gotRes); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Pattern: Calls comparison
func TestArguments_DefaultsVariablesAndRequired(t *testing.T) {
	sch := mustSchema(t, `
type Query {
  posts(first: Int = 10, tag: String): [String]
  greet(name: String!): String
}`)
	rt := executor.NewMockRuntime(nil)

	gotRes := execute(t, rt, sch, `query Q($tag: String) { posts(tag: $tag) a: posts(first: 2, tag: "go") greet }`, map[string]any{"tag": "x"})

	wantRes := &executor.ExecutionResult{
		Data:   map[string]any{"posts": nil, "a": nil, "greet": nil},
		Errors: []executor.GraphQLError{{Message: "argument 'name' of required type was not provided", Path: executor.Path{"greet"}}},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	wantCalls := []executor.Call{
		{Kind: "sync", ObjectType: "Query", Field: "posts", Path: executor.Path{"posts"}, Args: map[string]any{"first": 10, "tag": "x"}},
		{Kind: "sync", ObjectType: "Query", Field: "posts", Path: executor.Path{"a"}, Args: map[string]any{"first": 2, "tag": "go"}},
		{Kind: "sync", ObjectType: "Query", Field: "greet", Path: executor.Path{"greet"}, Args: map[string]any{}},
	}
	if diff := cmp.Diff(wantCalls, rt.GetCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

func TestVariables_RequiredMissing(t *testing.T) {
	sch := mustSchema(t, `type Query { posts(first: Int): [String] }`)

	gotRes := execute(t, executor.NewMockRuntime(nil), sch, `query($n: Int!) { posts(first: $n) }`, nil)

	wantRes := &executor.ExecutionResult{
		Errors: []executor.GraphQLError{{Message: "variable $n of required type Int! was not provided"}},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectives_SkipInclude(t *testing.T) {
	sch := mustSchema(t, `type Query { a: String b: String c: String }`)
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.c": executor.NewMockValueResolver("C"),
	})

	gotRes := execute(t, rt, sch, `query($s: Boolean!) { a @skip(if: $s) b @include(if: false) c }`, map[string]any{"s": true})

	wantRes := &executor.ExecutionResult{Data: map[string]any{"c": "C"}, Errors: []executor.GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Calls comparison
func TestMutation_SerialEvaluation(t *testing.T) {
	sch := mustSchema(t, `
type Query { ok: Boolean }
type Mutation { m1: String m2: String m3: String }`)
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Mutation.m1": executor.NewMockValueResolver("1"),
		"Mutation.m2": executor.NewMockErrorResolver(errors.New("boom")),
		"Mutation.m3": executor.NewMockValueResolver("3"),
	})

	gotRes := execute(t, rt, sch, "mutation { m1 m2 m3 }", nil)

	wantRes := &executor.ExecutionResult{
		Data:   map[string]any{"m1": "1", "m2": nil, "m3": "3"},
		Errors: []executor.GraphQLError{{Message: "boom", Path: executor.Path{"m2"}}},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	var fields []string
	for _, c := range rt.GetCalls() {
		fields = append(fields, c.Field)
	}
	if diff := cmp.Diff([]string{"m1", "m2", "m3"}, fields); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestOperationSelection(t *testing.T) {
	sch := mustSchema(t, `type Query { a: String b: String }`)
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.a": executor.NewMockValueResolver("A"),
		"Query.b": executor.NewMockValueResolver("B"),
	})
	exec := executor.NewExecutor(rt, sch)
	doc := mustParseQuery(t, "query A { a } query B { b }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "B", nil, nil)
	wantRes := &executor.ExecutionResult{Data: map[string]any{"b": "B"}, Errors: []executor.GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	gotRes = exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	wantRes = &executor.ExecutionResult{Errors: []executor.GraphQLError{{Message: "operation not found"}}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// shortRuntime drops every batch result.
type shortRuntime struct{ *executor.MockRuntime }

func (shortRuntime) BatchResolveAsync(context.Context, []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return nil
}

func TestBatch_Failures(t *testing.T) {
	sch := mustSchema(t, `type Query { a: String  b: String @async }`)
	resolvers := map[string]executor.MockResolver{
		"Query.a": executor.NewMockValueResolver("A"),
		"Query.b": executor.NewMockValueResolver("B"),
	}

	t.Run("Missing results", func(t *testing.T) {
		gotRes := execute(t, shortRuntime{executor.NewMockRuntime(resolvers)}, sch, "{ b }", nil)
		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"b": nil},
			Errors: []executor.GraphQLError{{Message: "runtime returned 0 results for 1 tasks", Path: executor.Path{"b"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rt := executor.NewMockRuntime(resolvers)

		gotRes := executor.NewExecutor(rt, sch).ExecuteRequest(ctx, mustParseQuery(t, "{ a b }"), "", nil, nil)

		wantRes := &executor.ExecutionResult{
			Data:   map[string]any{"a": "A", "b": nil},
			Errors: []executor.GraphQLError{{Message: context.Canceled.Error(), Path: executor.Path{"b"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
		if got := len(rt.GetCalls()); got != 1 {
			t.Fatalf("expected only the sync call, got %d", got)
		}
	})
}
