// Package iocache persists scores and run history across sqlite, mysql and postgresql.
package iocache

import (
	"sync"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// StoreManager holds the score cache and the run history store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	score        contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &StoreManager{} // Compile-time check

// NewStoreManager wraps already opened stores. Either may be nil.
func NewStoreManager(score contract.CacheStore, history contract.HistoryStore) *StoreManager {
	return &StoreManager{score: score, history: history}
}

// GetScoreStore returns the score CacheStore.
func (mgr *StoreManager) GetScoreStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.score
}

// GetHistoryStore returns the run HistoryStore.
func (mgr *StoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
