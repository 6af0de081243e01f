// Package directory is a fixture-backed users and posts service used to
// exercise resolver error logging end to end.
package directory

import (
	_ "embed"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.graphql
var SchemaSDL string

//go:embed fixtures.yaml
var fixtures string

// ErrNotFound is the cause of every failed lookup.
var ErrNotFound = errors.New("not found")

type User struct {
	ID    string  `yaml:"id" graphql:"id"`
	Name  string  `yaml:"name" graphql:"name"`
	Email *string `yaml:"email,omitempty" graphql:"email"`
	Role  string  `yaml:"role" graphql:"role"`
}

func (*User) GraphQLTypeName() string { return "User" }

type Post struct {
	ID       string `yaml:"id" graphql:"id"`
	Title    string `yaml:"title" graphql:"title"`
	AuthorID string `yaml:"author"`
}

func (*Post) GraphQLTypeName() string { return "Post" }

// Store holds users and posts in fixture order.
type Store struct {
	mu    sync.RWMutex
	users []*User
	posts []*Post
}

// Load reads YAML fixtures with top-level users and posts lists.
func Load(r io.Reader) (*Store, error) {
	var doc struct {
		Users []*User `yaml:"users"`
		Posts []*Post `yaml:"posts"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decode fixtures")
	}
	return &Store{users: doc.Users, posts: doc.Posts}, nil
}

// LoadFile reads fixtures from path, or the built-in fixtures when path is
// empty.
func LoadFile(path string) (*Store, error) {
	if path == "" {
		return Load(strings.NewReader(fixtures))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func (s *Store) User(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.users, func(u *User) bool { return u.ID == id })
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "user %q", id)
	}
	return s.users[i], nil
}

func (s *Store) Users() []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

func (s *Store) Post(id string) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.posts, func(p *Post) bool { return p.ID == id })
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "post %q", id)
	}
	return s.posts[i], nil
}

// PostsBy returns the posts written by the user with id authorID.
func (s *Store) PostsBy(authorID string) []*Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Post
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	return out
}

// Search returns users whose name and posts whose title contain term,
// ignoring case.
func (s *Store) Search(term string) []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term = strings.ToLower(term)
	var out []any
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Name), term) {
			out = append(out, u)
		}
	}
	for _, p := range s.posts {
		if strings.Contains(strings.ToLower(p.Title), term) {
			out = append(out, p)
		}
	}
	return out
}

// CreatePost adds a post by an existing user.
func (s *Store) CreatePost(authorID, title string) (*Post, error) {
	if _, err := s.User(authorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("title must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &Post{ID: "p" + strconv.Itoa(len(s.posts)+1), Title: title, AuthorID: authorID}
	s.posts = append(s.posts, p)
	return p, nil
}
