package errlog

import (
	"context"
	"strings"

	"github.com/hanpama/resolverlog/internal/resolver"
	"github.com/hanpama/resolverlog/internal/schema"
)

// Decorate returns a resolver with the same behavior as fn that reports
// every failure of fn to logger, annotated with hint.
//
// A nil fn is replaced by resolver.DefaultFieldResolver. The logger is not
// checked; a nil logger panics the first time a failure is logged.
//
// Failures are handled as follows:
//   - a returned error is logged and returned unchanged with fn's value
//   - a panic is logged and re-raised with the same value
//   - a returned resolver.Thenable gets a rejection continuation that logs
//     the reason and rejects the derived Thenable with it; the original
//     Thenable is what the caller receives
//
// Non-error failure values are logged as an error carrying the value's text.
func Decorate[S, A any](fn resolver.Func[S, A], logger Logger, hint string) resolver.Func[S, A] {
	if fn == nil {
		fn = resolver.DefaultFieldResolver[S, A]()
	}
	logFailure := func(ctx context.Context, reason any) {
		logger.Log(ctx, Wrap(resolver.AsError(reason), hint))
	}

	return func(ctx context.Context, source S, args A, info resolver.Info) (any, error) {
		returned := false
		defer func() {
			if returned {
				return
			}
			// nil means runtime.Goexit; let it unwind untouched.
			if r := recover(); r != nil {
				logFailure(ctx, r)
				panic(r)
			}
		}()
		result, err := fn(ctx, source, args, info)
		returned = true

		if err != nil {
			logFailure(ctx, err)
			return result, err
		}
		if t, ok := resolver.AsThenable(result); ok {
			t.Catch(func(reason any) (any, error) {
				logFailure(ctx, reason)
				return nil, resolver.AsError(reason)
			})
		}
		return result, nil
	}
}

// DecorateMap returns a copy of m in which every field of every object type
// in sch, including fields without a registered resolver, is decorated with
// logger. The hint for each field is its "Type.field" coordinate.
// Resolvers registered for coordinates the schema does not declare are
// copied unchanged.
func DecorateMap(sch *schema.Schema, m resolver.Map, logger Logger) resolver.Map {
	out := m.Clone()
	for _, t := range sch.ObjectTypes() {
		for _, f := range t.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			key := t.Name + "." + f.Name
			out[key] = Decorate(m[key], logger, key)
		}
	}
	return out
}
