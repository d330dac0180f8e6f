package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
	"github.com/odyssey-erp/order-review/internal/platform/httpx"
)

type countingRepo struct {
	*MemoryRepository
	listCalls atomic.Int32
	gate      chan struct{}
}

func (r *countingRepo) List(ctx context.Context) ([]acceptedorders.Order, error) {
	r.listCalls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	return r.MemoryRepository.List(ctx)
}

type recordedOp struct{ op, outcome string }

type opRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (r *opRecorder) ObserveStoreOp(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{op, outcome})
}

func sampleOrder(id string) acceptedorders.Order {
	return acceptedorders.Order{
		ID:            id,
		SupplierName:  "Acme",
		OrderQuantity: 10,
		Category:      acceptedorders.CategoryMeat,
		Amount:        250,
		DeliveryDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestService(t *testing.T, orders ...acceptedorders.Order) (*Service, *countingRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := &countingRepo{MemoryRepository: NewMemoryRepository(orders...)}
	return NewService(repo, NewCache(client, time.Minute), nil), repo
}

func TestServiceListCachesUntilWrite(t *testing.T) {
	svc, repo := newTestService(t, sampleOrder("a"), sampleOrder("b"))
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.listCalls.Load(), "second list should hit cache")

	updated := sampleOrder("a")
	updated.SupplierName = "Acme Foods"
	_, err = svc.Replace(ctx, "a", updated)
	require.NoError(t, err)

	after, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.listCalls.Load())
	assert.Equal(t, "Acme Foods", after[0].SupplierName)
	assert.True(t, after[0].DeliveryDate.Equal(first[0].DeliveryDate))
}

func TestServiceListSharesConcurrentLoads(t *testing.T) {
	svc, repo := newTestService(t, sampleOrder("a"))
	repo.gate = make(chan struct{})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			orders, err := svc.List(context.Background())
			assert.NoError(t, err)
			assert.Len(t, orders, 1)
		}()
	}
	require.Eventually(t, func() bool { return repo.listCalls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()
	assert.LessOrEqual(t, repo.listCalls.Load(), int32(2))
}

func TestServiceListEmptyIsNotNil(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil, nil)
	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestServiceReplaceValidation(t *testing.T) {
	svc, _ := newTestService(t, sampleOrder("a"))
	ctx := context.Background()

	_, err := svc.Replace(ctx, "a", sampleOrder("b"))
	assert.ErrorIs(t, err, ErrInvalidOrder)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	bad := sampleOrder("a")
	bad.SupplierName = ""
	_, err = svc.Replace(ctx, "a", bad)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = svc.Replace(ctx, "missing", sampleOrder(""))
	assert.ErrorIs(t, err, acceptedorders.ErrNotFound)
}

func TestServiceDeleteTwice(t *testing.T) {
	svc, _ := newTestService(t, sampleOrder("a"))
	rec := &opRecorder{}
	svc.SetRecorder(rec)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "a"))
	err := svc.Delete(ctx, "a")
	assert.True(t, errors.Is(err, acceptedorders.ErrNotFound))
	assert.Equal(t, []recordedOp{{"delete", "ok"}, {"delete", "not_found"}}, rec.ops)
}

func TestServiceCreateAssignsID(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), sampleOrder(""))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = svc.Create(context.Background(), created)
	assert.ErrorIs(t, err, acceptedorders.ErrDuplicateID)
}

func TestLocalImplementsStore(t *testing.T) {
	svc, _ := newTestService(t, sampleOrder("a"), sampleOrder("b"))
	session := acceptedorders.NewSession(NewLocal(svc))
	ctx := context.Background()
	require.NoError(t, session.Refresh(ctx))

	require.True(t, session.BeginEdit("a"))
	require.NoError(t, session.StageField("supplierName", "Zed"))
	saved, err := session.CommitEdit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Zed", saved.SupplierName)

	require.NoError(t, session.Delete(ctx, "b", acceptedorders.Confirmed))
	remote, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Equal(t, "Zed", remote[0].SupplierName)
}

func TestCacheWithoutClient(t *testing.T) {
	var cache *Cache
	ctx := context.Background()
	key, err := cache.BuildKey(ctx, "acceptedorders", "list")
	require.NoError(t, err)
	assert.Equal(t, "acceptedorders:list", key)

	var out []string
	err = cache.FetchJSON(ctx, key, &out, func(context.Context) (any, error) {
		return []string{"x"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, out)
	assert.NoError(t, cache.Bump(ctx))
}

func newServiceWithRedis(t *testing.T, orders ...acceptedorders.Order) (*Service, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := &countingRepo{MemoryRepository: NewMemoryRepository(orders...)}
	return NewService(repo, NewCache(client, time.Minute), nil), repo, mr
}

func TestServiceListRecoversFromCorruptCacheEntry(t *testing.T) {
	svc, repo, mr := newServiceWithRedis(t, sampleOrder("a"), sampleOrder("b"))
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)
	const key = "acceptedorders:list:1"
	require.True(t, mr.Exists(key))
	require.NoError(t, mr.Set(key, "{not json"))

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, int32(2), repo.listCalls.Load())

	cached, err := mr.Get(key)
	require.NoError(t, err)
	assert.Contains(t, cached, `"_id":"a"`)
}

func TestServiceListFallsBackWhenCacheReadFails(t *testing.T) {
	svc, repo, mr := newServiceWithRedis(t, sampleOrder("a"))
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)
	const key = "acceptedorders:list:1"
	mr.Del(key)
	mr.HSet(key, "field", "value")

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "a", orders[0].ID)
	assert.Equal(t, int32(2), repo.listCalls.Load())
}

func TestServiceListSurvivesCancelledLeader(t *testing.T) {
	svc, repo, _ := newServiceWithRedis(t, sampleOrder("a"))
	repo.gate = make(chan struct{})

	leaderCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	results := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.List(leaderCtx)
		results <- err
	}()
	require.Eventually(t, func() bool { return repo.listCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		orders, err := svc.List(context.Background())
		if err == nil && len(orders) != 1 {
			err = errors.New("follower got wrong rows")
		}
		results <- err
	}()
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()
	close(results)

	for err := range results {
		assert.NoError(t, err)
	}
}
