package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/internal/domain/jobModel"
	"github.com/akolanti/TenthLine/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem JobStore")

type storedJob struct {
	job     jobModel.Job
	expires time.Time
}

// InMemoryJobStore is the job store used when redis is offline. Records
// expire after ttl like their redis counterparts; a zero ttl keeps them.
type InMemoryJobStore struct {
	jobMutex sync.RWMutex
	jobMap    map[string]storedJob
	ttl       time.Duration
	lastSweep time.Time
}

func InitInMemoryJobStore(ttl time.Duration) *InMemoryJobStore {
	return &InMemoryJobStore{
		jobMap: make(map[string]storedJob),
		ttl:    ttl,
	}
}

func (store *InMemoryJobStore) SaveJob(ctx context.Context, jobToStore jobModel.Job) error {
	// batches are not persisted
	jobToStore.Batch = docModel.Batch{}
	entry := storedJob{job: jobToStore}
	now := time.Now()
	if store.ttl > 0 {
		entry.expires = now.Add(store.ttl)
	}

	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	store.jobMap[jobToStore.Id] = entry
	store.evictExpired(now)
	inMemLogger.FromContext(ctx).Debug("Saved job to store", "jobId", jobToStore.Id, "status", jobToStore.Status)
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	store.jobMutex.RLock()
	entry, found := store.jobMap[jobId]
	store.jobMutex.RUnlock()
	if found && !entry.expires.IsZero() && time.Now().After(entry.expires) {
		found = false
	}
	inMemLogger.FromContext(ctx).Debug("job lookup", "jobId", jobId, "found", found)
	if !found {
		return jobModel.Job{}, false
	}
	return entry.job, true
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	delete(store.jobMap, jobID)
}

// evictExpired runs under the write lock, at most once per minute.
func (store *InMemoryJobStore) evictExpired(now time.Time) {
	if store.ttl <= 0 || now.Sub(store.lastSweep) < min(store.ttl, time.Minute) {
		return
	}
	store.lastSweep = now
	for id, entry := range store.jobMap {
		if !entry.expires.IsZero() && now.After(entry.expires) {
			delete(store.jobMap, id)
		}
	}
}

// Len counts records, expired ones included until the next save.
func (store *InMemoryJobStore) Len() int {
	store.jobMutex.RLock()
	defer store.jobMutex.RUnlock()
	return len(store.jobMap)
}
