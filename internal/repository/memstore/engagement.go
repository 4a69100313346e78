package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

type commentRepo struct{ *db }

func (r commentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	item, ok := r.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	item.AuthorName = r.users[item.AuthorID].Name
	return &item, nil
}

func (r commentRepo) ListByTarget(_ context.Context, target model.ContentRef, p repository.Pagination) ([]*model.Comment, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]*model.Comment, 0)
	for _, item := range r.comments {
		if !sameTarget(item.Target(), target) {
			continue
		}
		copied := item
		copied.AuthorName = r.users[item.AuthorID].Name
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	start, end := page(len(out), p)
	return out[start:end], nil
}

func (r commentRepo) Create(_ context.Context, item *model.Comment) error {
	if err := item.Target().Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[item.AuthorID]; !ok || !r.targetExists(item.Target()) {
		return repository.ErrReferenced
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now()
	}
	r.comments[item.ID] = *item
	return nil
}

func (r commentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r commentRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	return int64(len(r.comments)), nil
}

type reactionRepo struct{ *db }

func (r reactionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Reaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	item, ok := r.reactions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r reactionRepo) Create(_ context.Context, item *model.Reaction) error {
	if err := item.Target().Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.users[item.UserID]; !ok || !r.targetExists(item.Target()) {
		return repository.ErrReferenced
	}
	for _, existing := range r.reactions {
		if existing.UserID == item.UserID && existing.Type == item.Type && sameTarget(existing.Target(), item.Target()) {
			return repository.ErrConflict
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now()
	}
	r.reactions[item.ID] = *item
	return nil
}

func (r reactionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.reactions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.reactions, id)
	return nil
}

func (r reactionRepo) CountByTarget(_ context.Context, target model.ContentRef) (map[model.ReactionType]int64, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	counts := make(map[model.ReactionType]int64)
	for _, item := range r.reactions {
		if sameTarget(item.Target(), target) {
			counts[item.Type]++
		}
	}
	return counts, nil
}

func (r reactionRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	return int64(len(r.reactions)), nil
}

type analyticsRepo struct{ *db }

func (r analyticsRepo) Create(_ context.Context, item *model.Analytics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now()
	}
	if item.Date.IsZero() {
		item.Date = item.CreatedAt
	}
	r.analytics[item.ID] = *item
	return nil
}

func (r analyticsRepo) inRange(from, to *time.Time) []*model.Analytics {
	out := make([]*model.Analytics, 0, len(r.analytics))
	for _, item := range r.analytics {
		if from != nil && item.Date.Before(*from) {
			continue
		}
		if to != nil && !item.Date.Before(*to) {
			continue
		}
		copied := item
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (r analyticsRepo) List(_ context.Context, filter repository.AnalyticsListFilter) ([]*model.Analytics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	all := r.inRange(filter.From, filter.To)
	start, end := page(len(all), filter.Pagination)
	return all[start:end], nil
}

func (r analyticsRepo) Totals(_ context.Context, from, to *time.Time) (*model.AnalyticsTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	totals := &model.AnalyticsTotals{}
	items := r.inRange(from, to)
	for _, item := range items {
		totals.Days++
		totals.ActiveUsers += int64(item.ActiveUsers)
		totals.NewUsers += int64(item.NewUsers)
		totals.PageViews += int64(item.PageViews)
		totals.DesktopUsers += int64(item.DesktopUsers)
		totals.MobileUsers += int64(item.MobileUsers)
		totals.TabletUsers += int64(item.TabletUsers)
		totals.AvgSessionDuration += item.AvgSessionDuration
		totals.BounceRate += item.BounceRate
	}
	if totals.Days > 0 {
		totals.AvgSessionDuration /= float64(totals.Days)
		totals.BounceRate /= float64(totals.Days)
	}
	return totals, nil
}

func (r analyticsRepo) TopContent(_ context.Context, limit int) ([]*model.ContentEngagement, error) {
	if limit <= 0 {
		limit = 5
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	stats := make(map[uuid.UUID]*model.ContentEngagement)
	lookup := func(target model.ContentRef) *model.ContentEngagement {
		id := target.ID()
		if entry, ok := stats[id]; ok {
			return entry
		}
		entry := &model.ContentEngagement{Kind: target.Kind(), ID: id}
		if target.Kind() == model.ContentEvent {
			entry.Title, entry.Published = r.events[id].Title, r.events[id].Published
		} else {
			entry.Title, entry.Published = r.announcements[id].Title, r.announcements[id].Published
		}
		stats[id] = entry
		return entry
	}
	for _, item := range r.comments {
		lookup(item.Target()).Comments++
	}
	for _, item := range r.reactions {
		lookup(item.Target()).Reactions++
	}

	out := make([]*model.ContentEngagement, 0, len(stats))
	for _, entry := range stats {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score() == out[j].Score() {
			return out[i].Title < out[j].Title
		}
		return out[i].Score() > out[j].Score()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type sessionRepo struct{ *db }

func (r sessionRepo) Create(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, exists := r.sessions[token.TokenHash]; exists {
		return repository.ErrConflict
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now()
	}
	r.sessions[token.TokenHash] = *token
	return nil
}

func (r sessionRepo) FindByHash(_ context.Context, tokenHash string) (*model.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	token, ok := r.sessions[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &token, nil
}

func (r sessionRepo) Rotate(_ context.Context, oldHash string, next *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.sessions[oldHash]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, oldHash)
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now()
	}
	r.sessions[next.TokenHash] = *next
	return nil
}

func (r sessionRepo) DeleteByHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.sessions[tokenHash]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, tokenHash)
	return nil
}

func (r sessionRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	for key, token := range r.sessions {
		if token.UserID == userID {
			delete(r.sessions, key)
		}
	}
	return nil
}

func (r sessionRepo) DeleteExpired(_ context.Context, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	var removed int64
	for key, token := range r.sessions {
		if !token.ExpiresAt.After(at) {
			delete(r.sessions, key)
			removed++
		}
	}
	return removed, nil
}

type auditRepo struct{ *db }

func (r auditRepo) Create(_ context.Context, log *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	log.ID = int64(len(r.audit) + 1)
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now()
	}
	r.audit = append(r.audit, *log)
	return nil
}

func (r auditRepo) List(_ context.Context, filter repository.AuditListFilter) ([]*model.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]*model.AuditLog, 0, len(r.audit))
	for i := len(r.audit) - 1; i >= 0; i-- {
		item := r.audit[i]
		if filter.ActorID != nil && (item.ActorID == nil || *item.ActorID != *filter.ActorID) {
			continue
		}
		if filter.ResourceType != nil && (item.ResourceType == nil || *item.ResourceType != *filter.ResourceType) {
			continue
		}
		if filter.StartTime != nil && item.CreatedAt.Before(*filter.StartTime) {
			continue
		}
		if filter.EndTime != nil && item.CreatedAt.After(*filter.EndTime) {
			continue
		}
		out = append(out, &item)
	}
	start, end := page(len(out), filter.Pagination)
	return out[start:end], nil
}
