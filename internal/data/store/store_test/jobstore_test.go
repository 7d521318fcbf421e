package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/data/redisStore"
	"github.com/akolanti/TenthLine/internal/data/store"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisJobStore_Lifecycle(t *testing.T) {
	// 1. Start miniredis
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	internalStore := redisStore.NewTestStore(client)
	jobStore := store.TestJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:       jobID,
		Status:   jobModel.JobStatusRunning,
		Progress: 40,
		Stage:    "processed chunk 2 of 5",
		JobPayload: jobModel.JobPayload{
			DocumentCount: 25,
			Features:      []docModel.Feature{docModel.FeatureMerge, docModel.FeatureTenthLining},
		},
		Batch: docModel.Batch{Documents: []docModel.Document{{Filename: "a.pdf", Content: []byte("%PDF")}}},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		if err := jobStore.SaveJob(ctx, testJob); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}
		if retrievedJob.Progress != 40 || retrievedJob.JobPayload.DocumentCount != 25 {
			t.Errorf("Data mismatch! Got %+v", retrievedJob)
		}
		if len(retrievedJob.Batch.Documents) != 0 {
			t.Error("document bytes must not be persisted with the job")
		}
		if ttl := mr.TTL(jobID); ttl != config.RedisJobStoreTTL {
			t.Errorf("expected TTL %s, got %s", config.RedisJobStoreTTL, ttl)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		_, found := jobStore.GetJob(ctx, "ghost-id")
		if found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Corrupt Job Is Not Found", func(t *testing.T) {
		if err := mr.Set("corrupt-job", "{not json"); err != nil {
			t.Fatal(err)
		}
		if _, found := jobStore.GetJob(ctx, "corrupt-job"); found {
			t.Error("Expected found=false for an unreadable job")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)

		if mr.Exists(jobID) {
			t.Error("Job still exists in Redis after DeleteJob call")
		}
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.TestJobStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(progress int) {
			defer wg.Done()
			j := job
			j.Progress = progress
			_ = jobStore.SaveJob(ctx, j)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}(i)
	}
	wg.Wait()

	if _, found := jobStore.GetJob(ctx, "race-job"); !found {
		t.Error("expected the job to survive concurrent writes")
	}
}

func TestInMemoryJobStore(t *testing.T) {
	s := store.InitInMemoryJobStore(config.RedisJobStoreTTL)
	ctx := context.Background()

	job := jobModel.Job{
		Id:     "mem-1",
		Status: jobModel.JobStatusQueued,
		Batch:  docModel.Batch{Documents: []docModel.Document{{Filename: "a.pdf"}}},
	}
	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	got, found := s.GetJob(ctx, "mem-1")
	if !found || got.Status != jobModel.JobStatusQueued {
		t.Fatalf("expected the queued job back, got %+v %v", got, found)
	}
	if len(got.Batch.Documents) != 0 {
		t.Error("in-memory store should drop the batch like the redis store")
	}

	s.DeleteJob(ctx, "mem-1")
	if _, found := s.GetJob(ctx, "mem-1"); found {
		t.Error("job still present after delete")
	}
}

func TestInMemoryJobStore_Expiry(t *testing.T) {
	// 1. Setup a store with a short ttl
	s := store.InitInMemoryJobStore(20 * time.Millisecond)
	ctx := context.Background()
	if err := s.SaveJob(ctx, jobModel.Job{Id: "old"}); err != nil {
		t.Fatal(err)
	}

	// 2. The record disappears after the ttl
	time.Sleep(40 * time.Millisecond)
	if _, found := s.GetJob(ctx, "old"); found {
		t.Error("expired job should not be returned")
	}

	// 3. The next save sweeps it out of the map
	if err := s.SaveJob(ctx, jobModel.Job{Id: "new"}); err != nil {
		t.Fatal(err)
	}
	if got := s.Len(); got != 1 {
		t.Errorf("expected only the fresh job to be kept, got %d records", got)
	}
}

func TestRedisStores_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.TestJobStore(redisStore.NewTestStore(client))
	cache := store.NewRedisResultCache(redisStore.NewTestStore(client))
	ctx := context.Background()

	if err := jobStore.Ping(ctx); err != nil {
		t.Errorf("job store ping failed: %v", err)
	}
	if err := cache.Ping(ctx); err != nil {
		t.Errorf("result cache ping failed: %v", err)
	}

	mr.SetError("LOADING redis is loading the dataset in memory")
	if jobStore.Ping(ctx) == nil || cache.Ping(ctx) == nil {
		t.Error("expected both stores to report the outage")
	}
}

func TestRedisResultCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := store.NewRedisResultCache(redisStore.NewTestStore(client))
	ctx := context.Background()
	key := config.ResultCacheKeyPrefix + "abc"

	result := docModel.ProcessingResult{
		Output:     []byte("%PDF-1.7 composed"),
		TotalPages: 12,
		Method:     docModel.MethodChunked,
		Stats:      docModel.Stats{LinesCounted: 240, ByTag: map[docModel.Tag]int{docModel.TagContent: 240}},
	}

	if _, ok, err := cache.Get(ctx, key); ok || err != nil {
		t.Fatalf("expected a clean miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Put(ctx, key, result, 24*time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if ttl := mr.TTL(key); ttl != 24*time.Hour {
		t.Errorf("expected a 24h TTL, got %s", ttl)
	}

	got, ok, err := cache.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if string(got.Output) != string(result.Output) || got.Stats.LinesCounted != 240 || got.Method != docModel.MethodChunked {
		t.Errorf("cached result differs: %+v", got)
	}

	mr.FastForward(25 * time.Hour)
	if _, ok, _ := cache.Get(ctx, key); ok {
		t.Error("entry should have expired")
	}

	// an unreachable redis is an error, which callers treat as a miss
	mr.SetError("LOADING redis is loading the dataset in memory")
	if _, ok, err := cache.Get(ctx, key); ok || err == nil {
		t.Errorf("expected an error from a failing redis, got ok=%v err=%v", ok, err)
	}
}

func TestInMemoryResultCache(t *testing.T) {
	cache := store.InitInMemoryResultCache()
	ctx := context.Background()

	if err := cache.Put(ctx, "short", docModel.ProcessingResult{TotalPages: 1}, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put(ctx, "long", docModel.ProcessingResult{TotalPages: 2}, time.Hour); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := cache.Get(ctx, "short"); ok {
		t.Error("short entry should have expired")
	}
	if r, ok, _ := cache.Get(ctx, "long"); !ok || r.TotalPages != 2 {
		t.Errorf("long entry missing: %+v %v", r, ok)
	}

	var noop store.NoopResultCache
	_ = noop.Put(ctx, "k", docModel.ProcessingResult{TotalPages: 3}, time.Hour)
	if _, ok, _ := noop.Get(ctx, "k"); ok {
		t.Error("noop cache must never hit")
	}
}
