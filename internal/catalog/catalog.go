// Package catalog holds the course and user data fetched once at startup.
// A Store is never mutated after construction, so it is safe to share
// without locking.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iishyfishyy/learnq/internal/lms"
	"github.com/iishyfishyy/learnq/internal/logging"
)

// Fetcher is the data source the catalog is loaded from.
type Fetcher interface {
	FetchCourses(ctx context.Context) ([]lms.Course, error)
	FetchUsers(ctx context.Context) ([]lms.User, error)
}

// Store is the immutable set of known courses and users.
type Store struct {
	courses   []lms.Course
	users     []lms.User
	titles    []string
	titleSet  map[string]int
	userNames []string
	byUserID  map[string]int
	byName    map[string]int
}

// Load fetches courses and users concurrently and builds a Store. Either
// fetch failing fails the load.
func Load(ctx context.Context, f Fetcher) (*Store, error) {
	var (
		courses []lms.Course
		users   []lms.User
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = f.FetchCourses(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch courses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = f.FetchUsers(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := New(courses, users)
	logging.L().Info("catalog_loaded",
		logging.Count(len(s.titles)),
		logging.Duration(time.Since(start)),
	)
	return s, nil
}

// New builds a Store from already-fetched data.
func New(courses []lms.Course, users []lms.User) *Store {
	s := &Store{
		courses:  courses,
		users:    users,
		titleSet: make(map[string]int, len(courses)),
		byUserID: make(map[string]int, len(users)),
		byName:   make(map[string]int, len(users)),
	}

	for i, c := range courses {
		if _, dup := s.titleSet[c.Title]; dup {
			continue
		}
		s.titleSet[c.Title] = i
		s.titles = append(s.titles, c.Title)
	}
	sort.Strings(s.titles)

	for i, u := range users {
		s.byUserID[u.ID] = i
		if strings.TrimSpace(u.Name) == "" {
			continue
		}
		if _, dup := s.byName[u.Name]; !dup {
			s.byName[u.Name] = i
			s.userNames = append(s.userNames, u.Name)
		}
	}
	sort.Strings(s.userNames)

	return s
}

// Titles returns the sorted, de-duplicated course titles.
func (s *Store) Titles() []string {
	out := make([]string, len(s.titles))
	copy(out, s.titles)
	return out
}

// HasTitle reports whether title is exactly a known course title.
func (s *Store) HasTitle(title string) bool {
	_, ok := s.titleSet[title]
	return ok
}

// Course returns the first course with the given title.
func (s *Store) Course(title string) (lms.Course, bool) {
	i, ok := s.titleSet[title]
	if !ok {
		return lms.Course{}, false
	}
	return s.courses[i], true
}

// Courses returns every course in fetch order.
func (s *Store) Courses() []lms.Course {
	out := make([]lms.Course, len(s.courses))
	copy(out, s.courses)
	return out
}

// Users returns every user in fetch order.
func (s *Store) Users() []lms.User {
	out := make([]lms.User, len(s.users))
	copy(out, s.users)
	return out
}

// UserNames returns the sorted, de-duplicated user names.
func (s *Store) UserNames() []string {
	out := make([]string, len(s.userNames))
	copy(out, s.userNames)
	return out
}

// HasUserName reports whether name is exactly a known user name.
func (s *Store) HasUserName(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// UserByName returns the first user with the given name.
func (s *Store) UserByName(name string) (lms.User, bool) {
	i, ok := s.byName[name]
	if !ok {
		return lms.User{}, false
	}
	return s.users[i], true
}

// UserName resolves a user id to a display name. Unknown ids come back as
// the id itself so reports never print an empty name.
func (s *Store) UserName(id string) string {
	if i, ok := s.byUserID[id]; ok && strings.TrimSpace(s.users[i].Name) != "" {
		return s.users[i].Name
	}
	return id
}
