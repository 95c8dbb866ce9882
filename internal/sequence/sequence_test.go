package sequence

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

func TestSQL_NextIDSingleRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(
		`ON DUPLICATE KEY UPDATE next_id = LAST_INSERT_ID(next_id + 1)`)).
		WithArgs(DefaultName).
		WillReturnResult(sqlmock.NewResult(7, 2))

	seq := NewSQL(sqlx.NewDb(db, "mysql"), "")
	id, err := seq.NextID(context.Background())
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQL_NextIDRejectsZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO domain_sequence`)).
		WithArgs("custom").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := NewSQL(sqlx.NewDb(db, "mysql"), "custom").NextID(context.Background()); err == nil {
		t.Fatal("expected error for zero insert id")
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis_Floor(t *testing.T) {
	_, client := newRedis(t)
	seq := NewRedis(client, "", 10)
	ctx := context.Background()

	for want := int64(11); want <= 13; want++ {
		got, err := seq.NextID(ctx)
		if err != nil {
			t.Fatalf("NextID: %v", err)
		}
		if got != want {
			t.Fatalf("got %d, want %d", got, want)
		}
	}
}

func TestRedis_ExistingCounterAboveFloor(t *testing.T) {
	mr, client := newRedis(t)
	if err := mr.Set("seq", "100"); err != nil {
		t.Fatal(err)
	}

	got, err := NewRedis(client, "seq", 5).NextID(context.Background())
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if got != 101 {
		t.Fatalf("got %d, want 101", got)
	}
}

func TestRedis_ConcurrentUnique(t *testing.T) {
	_, client := newRedis(t)
	seq := NewRedis(client, "", 0)

	const n = 50
	var (
		mu   sync.Mutex
		seen = make(map[int64]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := seq.NextID(context.Background())
			if err != nil {
				t.Errorf("NextID: %v", err)
				return
			}
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Fatalf("unique ids = %d, want %d", len(seen), n)
	}
}
