package redis

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestIncrWithTTL(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	count, err := client.IncrWithTTL(ctx, "win", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	count, err = client.IncrWithTTL(ctx, "win", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected counter 2 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}
}

func TestDecrBelowZero(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "stock", 1, 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	remaining, err := client.DecrBy(ctx, "stock", 1)
	if err != nil {
		t.Fatalf("decr failed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining got %d", remaining)
	}
	remaining, err = client.DecrBy(ctx, "stock", 1)
	if err != nil {
		t.Fatalf("decr failed: %v", err)
	}
	if remaining != -1 {
		t.Fatalf("expected -1 after over-decrement got %d", remaining)
	}
	restored, err := client.IncrBy(ctx, "stock", 1)
	if err != nil {
		t.Fatalf("incr failed: %v", err)
	}
	if restored != 0 {
		t.Fatalf("expected compensation back to 0 got %d", restored)
	}
}

func TestSetNXOnlyOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	ok, err := client.SetNX(ctx, "lock", "owner-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "lock", "owner-b", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("second SetNX should lose")
	}
	got, err := client.Get(ctx, "lock")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "owner-a" {
		t.Fatalf("expected first owner to hold the key, got %q", got)
	}
}

func TestExistsAndDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "flag", "1", 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	present, err := client.Exists(ctx, "flag")
	if err != nil || !present {
		t.Fatalf("expected flag present, present=%v err=%v", present, err)
	}
	if err := client.Del(ctx, "flag"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	present, err = client.Exists(ctx, "flag")
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if present {
		t.Fatalf("flag should be gone")
	}
	if _, err := client.Get(ctx, "flag"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestBuildKey(t *testing.T) {
	client := &Client{}
	if got := client.BuildKey("flash", "stock", "item-1"); got != "fd:flash:stock:item-1" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := client.BuildKey("flash", "", "stock"); got != "fd:flash:stock" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

type mockCmdable struct {
	data        map[string]string
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) IncrBy(ctx context.Context, key string, n int64) *redis.IntCmd {
	current, _ := strconv.ParseInt(m.data[key], 10, 64)
	current += n
	m.data[key] = strconv.FormatInt(current, 10)
	return redis.NewIntResult(current, nil)
}

func (m *mockCmdable) DecrBy(ctx context.Context, key string, n int64) *redis.IntCmd {
	return m.IncrBy(ctx, key, -n)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
