package store

import (
	"errors"

	"github.com/dgraph-io/badger/v3"
)

// ErrKeyNotFound is returned if key is not found in KVStore.
var ErrKeyNotFound = errors.New("key not found")

// KVStore encapsulates key-value store abstraction, in minimalistic interface.
//
// KVStore MUST be thread safe.
type KVStore interface {
	Get(key []byte) ([]byte, error)     // Get gets the value for a key.
	Set(key []byte, value []byte) error // Set updates the value for a key.
	Delete(key []byte) error            // Delete deletes a key.
	PrefixIterator(prefix []byte) Iterator
	Close() error
}

// Iterator enumerates keys under a common prefix. Discard must be called to
// free its resources.
type Iterator interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Error() error
	Discard()
}

// NewInMemoryKVStore builds KVStore that works in-memory (without accessing disk).
func NewInMemoryKVStore() KVStore {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		panic(err)
	}
	return &BadgerKV{db: db}
}

// NewKVStore opens (or creates) a badger store at path.
func NewKVStore(path string) (KVStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &BadgerKV{db: db}, nil
}

// BadgerKV is an implementation of KVStore using Badger v3.
type BadgerKV struct {
	db *badger.DB
}

var _ KVStore = &BadgerKV{}

// Get returns value for given key, or error.
func (b *BadgerKV) Get(key []byte) ([]byte, error) {
	txn := b.db.NewTransaction(false)
	defer txn.Discard()
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Set saves key-value mapping in store.
func (b *BadgerKV) Set(key []byte, value []byte) error {
	txn := b.db.NewTransaction(true)
	if err := txn.Set(key, value); err != nil {
		txn.Discard()
		return err
	}
	return txn.Commit()
}

// Delete removes key and corresponding value from store.
func (b *BadgerKV) Delete(key []byte) error {
	txn := b.db.NewTransaction(true)
	if err := txn.Delete(key); err != nil {
		txn.Discard()
		return err
	}
	return txn.Commit()
}

// Close safely closes underlying data storage, to ensure that data is actually
// saved.
func (b *BadgerKV) Close() error {
	return b.db.Close()
}

// PrefixIterator returns an Iterator over all keys starting with prefix.
func (b *BadgerKV) PrefixIterator(prefix []byte) Iterator {
	txn := b.db.NewTransaction(false)
	iter := txn.NewIterator(badger.DefaultIteratorOptions)
	iter.Seek(prefix)
	return &badgerIterator{txn: txn, iter: iter, prefix: prefix}
}

type badgerIterator struct {
	txn       *badger.Txn
	iter      *badger.Iterator
	prefix    []byte
	lastError error
}

func (i *badgerIterator) Valid() bool {
	return i.iter.ValidForPrefix(i.prefix)
}

func (i *badgerIterator) Next() {
	i.iter.Next()
}

func (i *badgerIterator) Key() []byte {
	return i.iter.Item().KeyCopy(nil)
}

func (i *badgerIterator) Value() []byte {
	val, err := i.iter.Item().ValueCopy(nil)
	if err != nil {
		i.lastError = err
	}
	return val
}

func (i *badgerIterator) Error() error {
	return i.lastError
}

func (i *badgerIterator) Discard() {
	i.iter.Close()
	i.txn.Discard()
}
