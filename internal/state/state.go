// Package state holds the engine's process-wide application state: the
// catalog, the discussion group trees, the annotation set and the active
// sessions.
//
// State is injected, never global. Readers get deep copies. Every writer
// goes through one method that clones the affected sub-tree, applies the
// change to the clone and swaps it in under the lock, so a failed change
// leaves nothing behind and no reader observes a half-applied one.
package state

import (
	"cmp"
	"slices"
	"sync"

	"github.com/pageboundapp/pagebound-server/internal/domain"
	domainerrors "github.com/pageboundapp/pagebound-server/internal/errors"
)

// State is safe for concurrent use.
type State struct {
	mu sync.RWMutex

	books     []domain.Book
	bookIndex map[string]int

	groups     []domain.DiscussionGroup
	groupIndex map[string]int

	// annotations is owned per user; byBook is a read index over it.
	annotations map[string][]domain.Annotation
	owners      map[string]string
	byBook      map[string][]string

	sessions map[string]*domain.User
}

// New returns an empty state.
func New() *State {
	s := &State{sessions: make(map[string]*domain.User)}
	s.resetLocked(nil, nil, nil)
	return s
}

// Reset replaces catalog, groups and annotations wholesale. Sessions are kept.
func (s *State) Reset(books []domain.Book, groups []domain.DiscussionGroup, annotations []domain.Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(books, groups, annotations)
}

func (s *State) resetLocked(books []domain.Book, groups []domain.DiscussionGroup, annotations []domain.Annotation) {
	s.setCatalogLocked(books)

	s.groups = make([]domain.DiscussionGroup, 0, len(groups))
	s.groupIndex = make(map[string]int, len(groups))
	for _, g := range groups {
		s.groupIndex[g.ID] = len(s.groups)
		s.groups = append(s.groups, g.Clone())
	}

	s.annotations = make(map[string][]domain.Annotation)
	s.owners = make(map[string]string)
	s.byBook = make(map[string][]string)
	for _, a := range annotations {
		s.addAnnotationLocked(a)
	}
}

// Counts reports the sizes of the main collections.
func (s *State) Counts() (books, groups, annotations, sessions int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books), len(s.groups), len(s.owners), len(s.sessions)
}

// ---------------------------------------------------------------------------
// Catalog

// ReplaceCatalog swaps in a new catalog.
func (s *State) ReplaceCatalog(books []domain.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCatalogLocked(books)
}

func (s *State) setCatalogLocked(books []domain.Book) {
	s.books = make([]domain.Book, len(books))
	s.bookIndex = make(map[string]int, len(books))
	for i, b := range books {
		s.books[i] = b.Clone()
		s.bookIndex[b.ID] = i
	}
}

// Books returns the catalog in catalog order.
func (s *State) Books() []domain.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Book, len(s.books))
	for i, b := range s.books {
		out[i] = b.Clone()
	}
	return out
}

// Book returns a catalog entry.
func (s *State) Book(id string) (domain.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.bookIndex[id]
	if !ok {
		return domain.Book{}, false
	}
	return s.books[i].Clone(), true
}

// HasBook reports whether the catalog contains id.
func (s *State) HasBook(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bookIndex[id]
	return ok
}

// ---------------------------------------------------------------------------
// Discussion groups

// Groups returns every group tree in creation order.
func (s *State) Groups() []domain.DiscussionGroup {
	return s.GroupsWhere(func(*domain.DiscussionGroup) bool { return true })
}

// GroupsWhere returns the groups accepted by keep.
func (s *State) GroupsWhere(keep func(*domain.DiscussionGroup) bool) []domain.DiscussionGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DiscussionGroup, 0)
	for i := range s.groups {
		if keep(&s.groups[i]) {
			out = append(out, s.groups[i].Clone())
		}
	}
	return out
}

// Group returns one group tree.
func (s *State) Group(id string) (domain.DiscussionGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.groupIndex[id]
	if !ok {
		return domain.DiscussionGroup{}, false
	}
	return s.groups[i].Clone(), true
}

// AddGroup appends a new group.
func (s *State) AddGroup(g domain.DiscussionGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groupIndex[g.ID]; ok {
		return domainerrors.Conflict("group already exists")
	}
	s.groupIndex[g.ID] = len(s.groups)
	s.groups = append(s.groups, g.Clone())
	return nil
}

// UpdateGroup applies fn to a copy of the group and swaps the copy in when
// fn succeeds. It returns the group as stored.
func (s *State) UpdateGroup(id string, fn func(g *domain.DiscussionGroup) error) (domain.DiscussionGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.groupIndex[id]
	if !ok {
		return domain.DiscussionGroup{}, domainerrors.NotFoundf("group %s not found", id)
	}

	next := s.groups[i].Clone()
	if err := fn(&next); err != nil {
		return domain.DiscussionGroup{}, err
	}
	s.groups[i] = next
	return next.Clone(), nil
}

// ---------------------------------------------------------------------------
// Annotations

// AddAnnotation appends to the owner's set and indexes it by book.
func (s *State) AddAnnotation(a domain.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[a.ID]; ok {
		return domainerrors.Conflict("annotation already exists")
	}
	s.addAnnotationLocked(a)
	return nil
}

func (s *State) addAnnotationLocked(a domain.Annotation) {
	s.annotations[a.UserID] = append(s.annotations[a.UserID], a)
	s.owners[a.ID] = a.UserID
	s.byBook[a.BookID] = append(s.byBook[a.BookID], a.ID)
}

// Annotation returns one annotation.
func (s *State) Annotation(id string) (domain.Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.annotationLocked(id)
}

func (s *State) annotationLocked(id string) (domain.Annotation, bool) {
	owner, ok := s.owners[id]
	if !ok {
		return domain.Annotation{}, false
	}
	for _, a := range s.annotations[owner] {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Annotation{}, false
}

// RemoveAnnotation deletes an annotation from its owner's set and the index.
func (s *State) RemoveAnnotation(id string) (domain.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.annotationLocked(id)
	if !ok {
		return domain.Annotation{}, false
	}

	s.annotations[a.UserID] = slices.DeleteFunc(slices.Clone(s.annotations[a.UserID]),
		func(x domain.Annotation) bool { return x.ID == id })
	s.byBook[a.BookID] = slices.DeleteFunc(slices.Clone(s.byBook[a.BookID]),
		func(x string) bool { return x == id })
	delete(s.owners, id)
	return a, true
}

// AnnotationsByUser returns the user's own annotations, oldest first.
func (s *State) AnnotationsByUser(userID string) []domain.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByCreation(slices.Clone(s.annotations[userID]))
}

// AnnotationsForBook returns the annotations on bookID accepted by keep,
// oldest first.
func (s *State) AnnotationsForBook(bookID string, keep func(domain.Annotation) bool) []domain.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Annotation, 0)
	for _, id := range s.byBook[bookID] {
		if a, ok := s.annotationLocked(id); ok && keep(a) {
			out = append(out, a)
		}
	}
	return sortedByCreation(out)
}

func sortedByCreation(in []domain.Annotation) []domain.Annotation {
	if in == nil {
		return []domain.Annotation{}
	}
	slices.SortStableFunc(in, func(a, b domain.Annotation) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return in
}

// ---------------------------------------------------------------------------
// Sessions

// SetUser makes u the active user for its id, replacing any previous value
// wholesale.
func (s *State) SetUser(u *domain.User) {
	if u == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[u.ID] = u.Clone()
}

// ClearUser ends the user's session.
func (s *State) ClearUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// IsActive reports whether userID has a session.
func (s *State) IsActive(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[userID]
	return ok
}

// User returns the active user with Groups and Annotations derived from the
// membership sets and the annotation index.
func (s *State) User(userID string) (*domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	return s.viewLocked(u), true
}

// UpdateUser applies fn to a copy of the active user and swaps it in when fn
// succeeds.
func (s *State) UpdateUser(userID string, fn func(u *domain.User) error) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.sessions[userID]
	if !ok {
		return nil, domainerrors.Unauthenticated("no active session")
	}

	next := u.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.sessions[userID] = next
	return s.viewLocked(next), nil
}

func (s *State) viewLocked(u *domain.User) *domain.User {
	out := u.Clone()
	out.Groups = []string{}
	for i := range s.groups {
		if s.groups[i].IsMember(u.ID) {
			out.Groups = append(out.Groups, s.groups[i].ID)
		}
	}
	out.Annotations = sortedByCreation(slices.Clone(s.annotations[u.ID]))
	return out
}
