// Package memorydb implements the db interface on a plain map, for tests
// and short-lived tooling.
package memorydb

import (
	"sync"

	disputedb "github.com/celer-network/go-l2-dispute/db"
)

// Enforce database and bulk implement interfaces
var _ disputedb.DB = (*DB)(nil)
var _ disputedb.Bulk = (*Bulk)(nil)

type DB struct {
	lock sync.Mutex
	db   map[string][]byte
}

func NewDB() *DB {
	return &DB{
		db: make(map[string][]byte),
	}
}

func (db *DB) Type() string {
	return "memorydb"
}

func (db *DB) Set(namespace []byte, key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = disputedb.PrependNamespace(namespace, key)
	key = disputedb.ConvNilToBytes(key)
	value = disputedb.ConvNilToBytes(value)

	db.db[string(key)] = value
	return nil
}

func (db *DB) Delete(namespace []byte, key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = disputedb.PrependNamespace(namespace, key)
	delete(db.db, string(disputedb.ConvNilToBytes(key)))
	return nil
}

func (db *DB) Get(namespace []byte, key []byte) ([]byte, bool, error) {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = disputedb.PrependNamespace(namespace, key)
	value, exists := db.db[string(disputedb.ConvNilToBytes(key))]
	return value, exists, nil
}

func (db *DB) Exist(namespace []byte, key []byte) (bool, error) {
	_, exists, err := db.Get(namespace, key)
	return exists, err
}

func (db *DB) NewBulk() disputedb.Bulk {
	return &Bulk{db: db}
}

func (db *DB) Close() error {
	return nil
}

// Bulk collects writes and applies them on Flush.
type Bulk struct {
	db      *DB
	sets    []kv
	deletes [][]byte
}

type kv struct {
	key   []byte
	value []byte
}

func (bulk *Bulk) Set(namespace []byte, key []byte, value []byte) error {
	key = disputedb.PrependNamespace(namespace, key)
	bulk.sets = append(bulk.sets, kv{
		key:   disputedb.ConvNilToBytes(key),
		value: disputedb.ConvNilToBytes(value),
	})
	return nil
}

func (bulk *Bulk) Delete(namespace []byte, key []byte) error {
	key = disputedb.PrependNamespace(namespace, key)
	bulk.deletes = append(bulk.deletes, disputedb.ConvNilToBytes(key))
	return nil
}

func (bulk *Bulk) Flush() error {
	bulk.db.lock.Lock()
	defer bulk.db.lock.Unlock()

	for _, entry := range bulk.sets {
		bulk.db.db[string(entry.key)] = entry.value
	}
	for _, key := range bulk.deletes {
		delete(bulk.db.db, string(key))
	}
	bulk.sets = nil
	bulk.deletes = nil
	return nil
}

func (bulk *Bulk) DiscardLast() {
	bulk.sets = nil
	bulk.deletes = nil
}
