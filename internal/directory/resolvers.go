package directory

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc/metadata"

	"github.com/hanpama/resolverlog/internal/future"
	"github.com/hanpama/resolverlog/internal/resolver"
)

// UserIDHeader is the metadata key naming the calling user for Query.me.
const UserIDHeader = "x-user-id"

// ErrUnauthenticated is returned by Query.me without a caller id.
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolvers returns the field resolvers of SchemaSDL backed by s. Lookups
// by id return futures that reject when the id is unknown. Fields not listed
// here are read from the model structs by the default resolver.
func Resolvers(s *Store) resolver.Map {
	m := resolver.Map{}

	m.Set("Query", "user", func(ctx context.Context, _ any, args map[string]any, _ resolver.Info) (any, error) {
		id, _ := args["id"].(string)
		return future.Go(ctx, func(context.Context) (any, error) { return s.User(id) }), nil
	})
	m.Set("Query", "users", func(context.Context, any, map[string]any, resolver.Info) (any, error) {
		return s.Users(), nil
	})
	m.Set("Query", "me", func(ctx context.Context, _ any, _ map[string]any, _ resolver.Info) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		ids := md.Get(UserIDHeader)
		if len(ids) == 0 {
			return nil, ErrUnauthenticated
		}
		return future.Go(ctx, func(context.Context) (any, error) { return s.User(ids[0]) }), nil
	})
	m.Set("Query", "post", func(ctx context.Context, _ any, args map[string]any, _ resolver.Info) (any, error) {
		id, _ := args["id"].(string)
		return future.Go(ctx, func(context.Context) (any, error) { return s.Post(id) }), nil
	})
	m.Set("Query", "search", func(_ context.Context, _ any, args map[string]any, _ resolver.Info) (any, error) {
		term, _ := args["term"].(string)
		return s.Search(term), nil
	})

	m.Set("Mutation", "createPost", func(_ context.Context, _ any, args map[string]any, _ resolver.Info) (any, error) {
		authorID, _ := args["authorId"].(string)
		title, _ := args["title"].(string)
		return s.CreatePost(authorID, title)
	})

	m.Set("User", "posts", func(_ context.Context, source any, _ map[string]any, _ resolver.Info) (any, error) {
		u := source.(*User)
		return future.Resolved(s.PostsBy(u.ID)), nil
	})
	m.Set("Post", "author", func(ctx context.Context, source any, _ map[string]any, _ resolver.Info) (any, error) {
		p := source.(*Post)
		return future.Go(ctx, func(context.Context) (any, error) { return s.User(p.AuthorID) }), nil
	})
	return m
}
