package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-reservations/database"
	"github.com/yeremiapane/table-reservations/models"
	"github.com/yeremiapane/table-reservations/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testNow is Monday 2024-06-10 12:00 UTC.
var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	db     *gorm.DB
	store  *repository.GormStore
	clock  *clockwork.FakeClock
	events *recordingPublisher
	engine *Engine
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()
	db := openTestDB(t)
	env := &testEnv{
		db:     db,
		store:  repository.NewGormStore(db),
		clock:  clockwork.NewFakeClockAt(testNow),
		events: &recordingPublisher{},
	}

	policy := DefaultBookingPolicy()
	policy.Location = time.UTC
	o := Options{
		Policy:    &policy,
		Clock:     env.clock,
		LockWait:  2 * time.Second,
		Publisher: env.events,
	}
	for _, fn := range opts {
		fn(&o)
	}

	engine, err := NewEngine(env.store, o)
	require.NoError(t, err)
	env.engine = engine
	return env
}

func (e *testEnv) addTables(t *testing.T, capacities map[string]int) {
	t.Helper()
	for number, capacity := range capacities {
		_, err := e.store.Tables().Upsert(context.Background(), &models.Table{
			TableNumber: number,
			Capacity:    capacity,
			Status:      models.TableAvailable,
		})
		require.NoError(t, err)
	}
}

func (e *testEnv) tableStatus(t *testing.T, number string) models.TableStatus {
	t.Helper()
	table, err := e.store.Tables().GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return table.Status
}

// at moves the fake clock to hh:mm on the test day.
func (e *testEnv) at(hour, minute int) {
	target := time.Date(2024, 6, 10, hour, minute, 0, 0, time.UTC)
	e.clock.Advance(target.Sub(e.clock.Now()))
}

func strPtr(s string) *string { return &s }

func booking(date, clock string, party int) CreateReservationInput {
	return CreateReservationInput{
		Date:         date,
		Time:         clock,
		PartySize:    party,
		ContactPhone: "+62 812 3456 7890",
	}
}
