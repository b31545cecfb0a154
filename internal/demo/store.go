package demo

import (
	"slices"
	"strings"
	"sync"
)

type User struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

type Post struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author int    `json:"author"`
}

// Store is an in-memory user and post table.
type Store struct {
	mu     sync.RWMutex
	users  []User
	posts  []Post
	nextID int
}

func NewStore() *Store {
	return &Store{
		users: []User{
			{ID: 1, Name: "Ada", Email: "ada@example.com", Active: true},
			{ID: 2, Name: "Grace", Email: "grace@example.com", Active: true},
			{ID: 3, Name: "Edsger", Email: "edsger@example.com"},
		},
		posts: []Post{
			{ID: 1, Title: "Notes on the analytical engine", Author: 1},
			{ID: 2, Title: "Compilers for everyone", Author: 2},
		},
		nextID: 4,
	}
}

func (s *Store) Users(limit int, activeOnly bool) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if activeOnly && !u.Active {
			continue
		}
		out = append(out, u)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *Store) User(id int) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.users, func(u User) bool { return u.ID == id })
	if i < 0 {
		return User{}, false
	}
	return s.users[i], true
}

func (s *Store) UserByName(name string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.users, func(u User) bool { return strings.EqualFold(u.Name, name) })
	if i < 0 {
		return User{}, false
	}
	return s.users[i], true
}

// CreateUser reports false when the email is taken.
func (s *Store) CreateUser(name, email string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return User{}, false
		}
	}
	u := User{ID: s.nextID, Name: name, Email: email, Active: true}
	s.nextID++
	s.users = append(s.users, u)
	return u, true
}

func (s *Store) Posts() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.posts)
}

func (s *Store) Post(id int) (Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.posts, func(p Post) bool { return p.ID == id })
	if i < 0 {
		return Post{}, false
	}
	return s.posts[i], true
}
