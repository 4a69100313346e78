// Package memstore is an in-memory repository backend with the same
// constraint behaviour as the postgres schema. It backs service and
// handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

type db struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]model.User
	announcements map[uuid.UUID]model.Announcement
	events        map[uuid.UUID]model.Event
	comments      map[uuid.UUID]model.Comment
	reactions     map[uuid.UUID]model.Reaction
	analytics     map[uuid.UUID]model.Analytics
	sessions      map[string]model.RefreshToken
	audit         []model.AuditLog

	// failWith, when set, is returned by every call.
	failWith error
}

// DB exposes the fault hook of a store built by New.
type DB struct {
	*db
}

// Fail makes every subsequent repository call return err. Pass nil to reset.
func (d DB) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failWith = err
}

// New returns a repository.Store whose repositories share one in-memory
// database, plus a handle for fault injection.
func New() (*repository.Store, DB) {
	d := &db{
		users:         make(map[uuid.UUID]model.User),
		announcements: make(map[uuid.UUID]model.Announcement),
		events:        make(map[uuid.UUID]model.Event),
		comments:      make(map[uuid.UUID]model.Comment),
		reactions:     make(map[uuid.UUID]model.Reaction),
		analytics:     make(map[uuid.UUID]model.Analytics),
		sessions:      make(map[string]model.RefreshToken),
	}
	return &repository.Store{
		Users:         userRepo{d},
		Announcements: announcementRepo{d},
		Events:        eventRepo{d},
		Comments:      commentRepo{d},
		Reactions:     reactionRepo{d},
		Analytics:     analyticsRepo{d},
		Sessions:      sessionRepo{d},
		Audit:         auditRepo{d},
	}, DB{d}
}

func now() time.Time { return time.Now().UTC() }

func page(items int, p repository.Pagination) (int, int) {
	limit, offset := p.Normalize()
	start := int(offset)
	if start > items {
		start = items
	}
	end := start + int(limit)
	if end > items {
		end = items
	}
	return start, end
}

type userRepo struct{ *db }

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, user := range r.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) emailTaken(email string, except uuid.UUID) bool {
	for id, user := range r.users {
		if id != except && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}

func (r userRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if _, exists := r.users[user.ID]; exists || r.emailTaken(user.Email, user.ID) {
		return repository.ErrConflict
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	r.users[user.ID] = *user
	return nil
}

func (r userRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrConflict
	}
	user.UpdatedAt = now()
	r.users[user.ID] = *user
	return nil
}

func (r userRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, item := range r.announcements {
		if item.AuthorID == id {
			return repository.ErrReferenced
		}
	}
	for _, item := range r.events {
		if item.CreatedByID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.users, id)
	for key, item := range r.comments {
		if item.AuthorID == id {
			delete(r.comments, key)
		}
	}
	for key, item := range r.reactions {
		if item.UserID == id {
			delete(r.reactions, key)
		}
	}
	for key, item := range r.analytics {
		if item.RecordedByID == id {
			delete(r.analytics, key)
		}
	}
	for key, item := range r.sessions {
		if item.UserID == id {
			delete(r.sessions, key)
		}
	}
	return nil
}

func (r userRepo) filter(filter repository.UserListFilter) []*model.User {
	out := make([]*model.User, 0, len(r.users))
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		if filter.Keyword != nil {
			keyword := strings.ToLower(strings.TrimSpace(*filter.Keyword))
			if !strings.Contains(strings.ToLower(user.Name), keyword) && !strings.Contains(strings.ToLower(user.Email), keyword) {
				continue
			}
		}
		copied := user
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r userRepo) List(_ context.Context, filter repository.UserListFilter) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	all := r.filter(filter)
	start, end := page(len(all), filter.Pagination)
	return all[start:end], nil
}

func (r userRepo) Count(_ context.Context, filter repository.UserListFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	return int64(len(r.filter(filter))), nil
}

type announcementRepo struct{ *db }

func cloneAnnouncement(item model.Announcement) *model.Announcement {
	item.Images = append([]string(nil), item.Images...)
	item.Hotspots = append([]model.Hotspot(nil), item.Hotspots...)
	item.TimelineEvents = append([]model.TimelineEvent(nil), item.TimelineEvents...)
	return &item
}

func (r announcementRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Announcement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	item, ok := r.announcements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAnnouncement(item), nil
}

func (r announcementRepo) Create(_ context.Context, item *model.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[item.AuthorID]; !ok {
		return repository.ErrReferenced
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	if item.Date.IsZero() {
		item.Date = item.CreatedAt
	}
	r.announcements[item.ID] = *cloneAnnouncement(*item)
	return nil
}

func (r announcementRepo) Update(_ context.Context, item *model.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.announcements[item.ID]; !ok {
		return repository.ErrNotFound
	}
	item.UpdatedAt = now()
	r.announcements[item.ID] = *cloneAnnouncement(*item)
	return nil
}

func (r announcementRepo) SetPublished(_ context.Context, id uuid.UUID, published bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	item, ok := r.announcements[id]
	if !ok {
		return repository.ErrNotFound
	}
	item.Published = published
	item.UpdatedAt = now()
	r.announcements[id] = item
	return nil
}

func (r announcementRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.announcements[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.announcements, id)
	r.cascadeTarget(model.AnnouncementRef(id))
	return nil
}

func (r announcementRepo) filter(filter repository.AnnouncementListFilter) []*model.Announcement {
	out := make([]*model.Announcement, 0, len(r.announcements))
	for _, item := range r.announcements {
		if filter.PublishedOnly && !item.Published {
			continue
		}
		if filter.Category != nil && item.Category != *filter.Category {
			continue
		}
		out = append(out, cloneAnnouncement(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (r announcementRepo) List(_ context.Context, filter repository.AnnouncementListFilter) ([]*model.Announcement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	all := r.filter(filter)
	start, end := page(len(all), filter.Pagination)
	return all[start:end], nil
}

func (r announcementRepo) Count(_ context.Context, filter repository.AnnouncementListFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	return int64(len(r.filter(filter))), nil
}

type eventRepo struct{ *db }

func (r eventRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	item, ok := r.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r eventRepo) Create(_ context.Context, item *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[item.CreatedByID]; !ok {
		return repository.ErrReferenced
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	r.events[item.ID] = *item
	return nil
}

func (r eventRepo) Update(_ context.Context, item *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.events[item.ID]; !ok {
		return repository.ErrNotFound
	}
	item.UpdatedAt = now()
	r.events[item.ID] = *item
	return nil
}

func (r eventRepo) SetPublished(_ context.Context, id uuid.UUID, published bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	item, ok := r.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	item.Published = published
	item.UpdatedAt = now()
	r.events[id] = item
	return nil
}

func (r eventRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.events, id)
	r.cascadeTarget(model.EventRef(id))
	return nil
}

func (r eventRepo) filter(filter repository.EventListFilter) []*model.Event {
	out := make([]*model.Event, 0, len(r.events))
	for _, item := range r.events {
		if filter.PublishedOnly && !item.Published {
			continue
		}
		if filter.Category != nil && item.Category != *filter.Category {
			continue
		}
		if filter.From != nil && item.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !item.Date.Before(*filter.To) {
			continue
		}
		copied := item
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (r eventRepo) List(_ context.Context, filter repository.EventListFilter) ([]*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	all := r.filter(filter)
	start, end := page(len(all), filter.Pagination)
	return all[start:end], nil
}

func (r eventRepo) Count(_ context.Context, filter repository.EventListFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	return int64(len(r.filter(filter))), nil
}

// cascadeTarget drops engagement attached to a deleted target. Callers hold
// the write lock.
func (d *db) cascadeTarget(target model.ContentRef) {
	for key, item := range d.comments {
		if sameTarget(item.Target(), target) {
			delete(d.comments, key)
		}
	}
	for key, item := range d.reactions {
		if sameTarget(item.Target(), target) {
			delete(d.reactions, key)
		}
	}
}

func sameTarget(a, b model.ContentRef) bool {
	return a.Kind() == b.Kind() && a.ID() == b.ID()
}

func (d *db) targetExists(target model.ContentRef) bool {
	if target.Kind() == model.ContentEvent {
		_, ok := d.events[target.ID()]
		return ok
	}
	_, ok := d.announcements[target.ID()]
	return ok
}
