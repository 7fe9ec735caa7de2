// Package badgerdb implements the db interface on badger, for tooling
// that keeps state trees across runs.
package badgerdb

import (
	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"
	"github.com/rs/zerolog"

	disputedb "github.com/celer-network/go-l2-dispute/db"
	"github.com/celer-network/go-l2-dispute/log"
)

var logger *extendedLog

// Enforce database and bulk implement interfaces
var _ disputedb.DB = (*DB)(nil)
var _ disputedb.Bulk = (*Bulk)(nil)

type DB struct {
	db   *badger.DB
	name string
}

// NewDB creates a new database or loads an existing one in the directory.
func NewDB(dir string) (*DB, error) {
	logger = &extendedLog{Logger: log.NewLogger("db")}

	opts := badger.DefaultOptions(dir)
	opts.ValueLogLoadingMode = options.FileIO
	opts.TableLoadingMode = options.FileIO
	// store values smaller than 1k in the lsm tree
	opts.ValueThreshold = 1024
	opts.Logger = logger

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &DB{
		db:   bdb,
		name: dir,
	}, nil
}

func (db *DB) Type() string {
	return "badgerdb"
}

func (db *DB) Set(namespace []byte, key []byte, value []byte) error {
	key = disputedb.PrependNamespace(namespace, key)
	key = disputedb.ConvNilToBytes(key)
	value = disputedb.ConvNilToBytes(value)

	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (db *DB) Delete(namespace []byte, key []byte) error {
	key = disputedb.PrependNamespace(namespace, key)
	key = disputedb.ConvNilToBytes(key)

	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (db *DB) Get(namespace []byte, key []byte) ([]byte, bool, error) {
	key = disputedb.PrependNamespace(namespace, key)
	key = disputedb.ConvNilToBytes(key)

	var val []byte
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (db *DB) Exist(namespace []byte, key []byte) (bool, error) {
	key = disputedb.PrependNamespace(namespace, key)
	key = disputedb.ConvNilToBytes(key)

	exists := false
	err := db.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

func (db *DB) NewBulk() disputedb.Bulk {
	return &Bulk{
		db:   db,
		bulk: db.db.NewWriteBatch(),
	}
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Bulk batches writes through a badger WriteBatch.
type Bulk struct {
	db   *DB
	bulk *badger.WriteBatch
}

func (bulk *Bulk) Set(namespace []byte, key []byte, value []byte) error {
	key = disputedb.PrependNamespace(namespace, key)
	key = disputedb.ConvNilToBytes(key)
	value = disputedb.ConvNilToBytes(value)
	return bulk.bulk.Set(key, value)
}

func (bulk *Bulk) Delete(namespace []byte, key []byte) error {
	key = disputedb.PrependNamespace(namespace, key)
	key = disputedb.ConvNilToBytes(key)
	return bulk.bulk.Delete(key)
}

func (bulk *Bulk) Flush() error {
	return bulk.bulk.Flush()
}

func (bulk *Bulk) DiscardLast() {
	bulk.bulk.Cancel()
}

// extendedLog adapts the module logger to the badger.Logger interface.
type extendedLog struct {
	*zerolog.Logger
}

func (l *extendedLog) Errorf(format string, args ...interface{}) {
	l.Error().Msgf(format, args...)
}

func (l *extendedLog) Warningf(format string, args ...interface{}) {
	l.Warn().Msgf(format, args...)
}

func (l *extendedLog) Infof(format string, args ...interface{}) {
	l.Info().Msgf(format, args...)
}

func (l *extendedLog) Debugf(format string, args ...interface{}) {
	l.Debug().Msgf(format, args...)
}
