package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/policy"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository/memstore"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func signingKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

type testEnv struct {
	store         *repository.Store
	db            memstore.DB
	bus           *event.Bus
	auth          *AuthService
	announcements *AnnouncementService
	events        *EventService
	comments      *CommentService
	reactions     *ReactionService
	users         *UserService
	analytics     *AnalyticsService
	dashboard     *DashboardService
}

// fixedNow is 2025-05-15 09:30 in UTC.
var fixedNow = time.Date(2025, 5, 15, 9, 30, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, db := memstore.New()
	bus := event.NewBus()
	auth := NewAuthService(store.Users, store.Sessions, store.Audit, signingKey(t), WithBcryptCost(bcrypt.MinCost))
	clock := func() time.Time { return fixedNow }

	return &testEnv{
		store:         store,
		db:            db,
		bus:           bus,
		auth:          auth,
		announcements: NewAnnouncementService(store.Announcements, store.Audit, bus, nil),
		events:        NewEventService(store.Events, store.Audit, bus, nil, WithBoardLocation(time.UTC), WithEventClock(clock)),
		comments:      NewCommentService(store, bus, nil),
		reactions:     NewReactionService(store, bus, nil),
		users:         NewUserService(store, auth, bus, nil),
		analytics:     NewAnalyticsService(store.Analytics, nil),
		dashboard:     NewDashboardService(store, nil, WithDashboardLocation(time.UTC), WithDashboardClock(clock)),
	}
}

// seedUser stores an account with the given password and returns its subject.
func (e *testEnv) seedUser(t *testing.T, email, password string, role model.UserRole, active bool) *policy.Subject {
	t.Helper()
	hash, err := e.auth.HashPassword(password)
	require.NoError(t, err)
	user := &model.User{Email: email, PasswordHash: hash, Name: "User " + email, Role: role, Active: active}
	require.NoError(t, e.store.Users.Create(context.Background(), user))
	return &policy.Subject{ID: user.ID, Role: role}
}

func (e *testEnv) seedAnnouncement(t *testing.T, author *policy.Subject, title string, published bool) *model.Announcement {
	t.Helper()
	item, err := e.announcements.Create(context.Background(), author, AnnouncementInput{
		Title:       title,
		Content:     "content of " + title,
		Category:    model.CategoryGeneral,
		DisplayType: model.DisplayStandard,
		Published:   &published,
	})
	require.NoError(t, err)
	return item
}

func (e *testEnv) seedEvent(t *testing.T, author *policy.Subject, title, date string, published bool) *model.Event {
	t.Helper()
	item, err := e.events.Create(context.Background(), author, EventInput{
		Title:     title,
		Location:  "Main hall",
		Date:      date,
		StartTime: "10:00",
		EndTime:   "11:00",
		Category:  model.EventCategoryInternal,
		Published: &published,
	})
	require.NoError(t, err)
	return item
}

func boolPtr(v bool) *bool { return &v }
