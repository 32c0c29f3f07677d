package authgate

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hollowaylabs/authgate/store"
)

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.JWT.Issuer = "authgate-test"
	cfg.JWT.Audience = "test-api"
	cfg.Metrics.Enabled = true
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *store.Memory, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	records := store.NewMemory()

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithRecordStore(records).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, records, mr
}

func seedActiveUser(t *testing.T, records *store.Memory) (store.AuthUserRecord, store.SessionRecord) {
	t.Helper()

	user := records.AddUser(store.AuthUserRecord{
		Email:    "alice@example.com",
		Username: "alice",
		Role:     "user",
		Status:   store.AccountActive,
	})
	session := records.CreateSession(user.ID, time.Now().Add(time.Hour))
	return user, session
}
