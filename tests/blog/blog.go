// Package blog is a small end-to-end fixture: a blog API wired through the
// engine with batch loaders, used by the integration tests and the demo
// server under tests/blog/server.
package blog

import (
	"context"
	"sort"
	"sync/atomic"

	executor "github.com/graphload/graphload/internal/executor"
	gqlerr "github.com/graphload/graphload/internal/gqlerr"
	introspection "github.com/graphload/graphload/internal/introspection"
	loader "github.com/graphload/graphload/internal/loader"
	resolver "github.com/graphload/graphload/internal/resolver"
	schema "github.com/graphload/graphload/internal/schema"
	server "github.com/graphload/graphload/internal/server"
)

const SDL = `
type Query {
	user(id: ID!): User
	users: [User!]!
}

type User {
	id: ID!
	name: String!
	posts: [Post!]!
}

type Post {
	id: ID!
	title: String!
	author: User!
}
`

type User struct {
	ID   string
	Name string
}

type Post struct {
	ID       string
	Title    string
	AuthorID string
}

// Store is an in-memory database with batch-call counters.
type Store struct {
	Users map[string]*User
	Posts []*Post

	UserBatches atomic.Int64
	PostBatches atomic.Int64
}

func NewStore() *Store {
	return &Store{
		Users: map[string]*User{
			"1": {ID: "1", Name: "Ada"},
			"2": {ID: "2", Name: "Grace"},
			"3": {ID: "3", Name: "Edsger"},
		},
		Posts: []*Post{
			{ID: "p1", Title: "On Analytical Engines", AuthorID: "1"},
			{ID: "p2", Title: "Compiler Notes", AuthorID: "2"},
			{ID: "p3", Title: "More Compiler Notes", AuthorID: "2"},
			{ID: "p4", Title: "Structured Programming", AuthorID: "3"},
		},
	}
}

// Loaders returns the batch-function registry for the store.
func (s *Store) Loaders() *loader.Registry {
	reg := loader.NewRegistry()
	reg.Register("userByID", func(ctx context.Context, keys []any) (map[any]any, error) {
		s.UserBatches.Add(1)
		out := make(map[any]any, len(keys))
		for _, k := range keys {
			if u, ok := s.Users[k.(string)]; ok {
				out[k] = u
			}
		}
		return out, nil
	})
	reg.Register("postsByAuthor", func(ctx context.Context, keys []any) (map[any]any, error) {
		s.PostBatches.Add(1)
		out := make(map[any]any, len(keys))
		for _, k := range keys {
			var posts []any
			for _, p := range s.Posts {
				if p.AuthorID == k.(string) {
					posts = append(posts, p)
				}
			}
			out[k] = posts
		}
		return out, nil
	})
	return reg
}

// Resolvers returns the resolver registry for the blog schema. Leaf fields
// resolve through the property cascade; only relations need entries.
func (s *Store) Resolvers() *resolver.Registry {
	reg := resolver.NewRegistry()

	reg.RegisterFunc("Query", "user", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		id, _ := args["id"].(string)
		l, ok := loader.FromContext(ctx)
		if !ok {
			u, found := s.Users[id]
			if !found {
				return nil, gqlerr.NotFound("User", id)
			}
			return u, nil
		}
		p := l.Load("userByID", id)
		return resolver.Thunk(func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
			v, err := p.Result()
			if err != nil {
				return nil, err
			}
			if v == nil {
				return nil, gqlerr.NotFound("User", id)
			}
			return v, nil
		}), nil
	})

	reg.RegisterFunc("Query", "users", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		ids := make([]string, 0, len(s.Users))
		for id := range s.Users {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out := make([]any, len(ids))
		for i, id := range ids {
			out[i] = s.Users[id]
		}
		return out, nil
	})

	reg.RegisterFunc("User", "posts", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		u := source.(*User)
		l, ok := loader.FromContext(ctx)
		if !ok {
			var posts []any
			for _, p := range s.Posts {
				if p.AuthorID == u.ID {
					posts = append(posts, p)
				}
			}
			return posts, nil
		}
		return l.Load("postsByAuthor", u.ID), nil
	})

	reg.RegisterFunc("Post", "author", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		p := source.(*Post)
		l, ok := loader.FromContext(ctx)
		if !ok {
			return s.Users[p.AuthorID], nil
		}
		return l.Load("userByID", p.AuthorID), nil
	})

	return reg
}

// NewHandler wires the full stack: schema, resolvers, loaders, executor,
// error formatter and HTTP handler.
func (s *Store) NewHandler(opts ...server.Option) (*server.Handler, error) {
	sch, err := schema.BuildFromSDL("blog.graphql", SDL)
	if err != nil {
		return nil, err
	}

	resolvers := s.Resolvers()
	introspection.Register(resolvers, sch)

	exec := executor.NewExecutor(
		resolver.NewStrategy(resolvers),
		introspection.Extend(sch),
		executor.WithLoaders(s.Loaders()),
	)
	form := gqlerr.NewFormatter(gqlerr.DebugFlags{IncludeMessage: true})
	return server.New(exec, form, opts...), nil
}
