package kv

import (
	"context"
	"fmt"

	"lintang/routex/pkg/datastructure"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrGraphNotFound = errors.New("graph not found")
	ErrCorruptGraph  = errors.New("stored graph is corrupt")
)

const defaultChunkSize = 4 << 20

// GraphKey identifies a built graph: the profile it was built with, the
// fingerprint of the osm extract it came from and a digest of the build
// settings (profile rule table, bounding box, restrictions).
type GraphKey struct {
	Profile     string
	Fingerprint uint64
	Options     uint64
}

func (k GraphKey) prefix() string {
	return fmt.Sprintf("graph/%s/%016x/%016x", k.Profile, k.Fingerprint, k.Options)
}

func (k GraphKey) metaKey() []byte {
	return []byte(k.prefix() + "/meta")
}

func (k GraphKey) chunkKey(i int) []byte {
	return []byte(fmt.Sprintf("%s/chunk/%06d", k.prefix(), i))
}

// KVDB caches compressed graph snapshots in badger so a server restart
// does not have to parse the osm extract again.
type KVDB struct {
	db        *badger.DB
	logger    *zap.Logger
	chunkSize int
}

type Option func(*KVDB)

func WithChunkSize(n int) Option {
	return func(k *KVDB) {
		if n > 0 {
			k.chunkSize = n
		}
	}
}

func NewKVDB(db *badger.DB, logger *zap.Logger, opts ...Option) *KVDB {
	if logger == nil {
		logger = zap.NewNop()
	}
	k := &KVDB{db: db, logger: logger, chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Open opens (or creates) a badger database in dir. An empty dir keeps
// everything in memory.
func Open(dir string, logger *zap.Logger, opts ...Option) (*KVDB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bopts := badger.DefaultOptions(dir).WithLogger(badgerLogger{sugar: logger.Sugar()})
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return NewKVDB(db, logger, opts...), nil
}

// SaveGraph stores g under key, replacing whatever was there.
func (k *KVDB) SaveGraph(ctx context.Context, key GraphKey, g *datastructure.Graph) error {
	val, err := encodeSnapshot(g.Snapshot())
	if err != nil {
		return err
	}

	chunks := (len(val) + k.chunkSize - 1) / k.chunkSize
	meta := graphMeta{Chunks: chunks, Size: len(val), Checksum: xxhash.Sum64(val)}
	metaVal, err := encodeMeta(meta)
	if err != nil {
		return errors.Wrap(err, "encode graph meta")
	}

	if err := k.DeleteGraph(key); err != nil {
		return err
	}

	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for i := 0; i < chunks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := min((i+1)*k.chunkSize, len(val))
		if err := batch.Set(key.chunkKey(i), val[i*k.chunkSize:end]); err != nil {
			return errors.Wrapf(err, "write chunk %d", i)
		}
	}
	// meta goes last, a graph without meta is treated as missing
	if err := batch.Set(key.metaKey(), metaVal); err != nil {
		return errors.Wrap(err, "write graph meta")
	}
	if err := batch.Flush(); err != nil {
		return errors.Wrap(err, "flush graph")
	}

	k.logger.Info("graph saved to kv db",
		zap.String("profile", key.Profile),
		zap.Uint64("fingerprint", key.Fingerprint),
		zap.Uint64("options", key.Options),
		zap.Int("bytes", len(val)),
		zap.Int("chunks", chunks))
	return nil
}

// LoadGraph returns ErrGraphNotFound when nothing is stored under key.
func (k *KVDB) LoadGraph(ctx context.Context, key GraphKey) (*datastructure.Graph, error) {
	metaVal, err := k.get(key.metaKey())
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrGraphNotFound
	}
	if err != nil {
		return nil, err
	}
	meta, err := decodeMeta(metaVal)
	if err != nil {
		return nil, errors.Wrap(ErrCorruptGraph, err.Error())
	}

	val := make([]byte, 0, meta.Size)
	for i := 0; i < meta.Chunks; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		chunk, err := k.get(key.chunkKey(i))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.Wrapf(ErrCorruptGraph, "missing chunk %d", i)
		}
		if err != nil {
			return nil, err
		}
		val = append(val, chunk...)
	}
	if len(val) != meta.Size || xxhash.Sum64(val) != meta.Checksum {
		return nil, errors.Wrap(ErrCorruptGraph, "checksum mismatch")
	}

	s, err := decodeSnapshot(val)
	if err != nil {
		return nil, errors.Wrap(ErrCorruptGraph, err.Error())
	}
	g, err := datastructure.FromSnapshot(s)
	if err != nil {
		return nil, errors.Wrap(ErrCorruptGraph, err.Error())
	}
	return g, nil
}

// DeleteGraph removes the meta and every chunk stored under key.
func (k *KVDB) DeleteGraph(key GraphKey) error {
	prefix := []byte(key.prefix() + "/")
	keys := make([][]byte, 0)
	err := k.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "list graph keys")
	}
	if len(keys) == 0 {
		return nil
	}

	batch := k.db.NewWriteBatch()
	defer batch.Cancel()
	for _, key := range keys {
		if err := batch.Delete(key); err != nil {
			return errors.Wrap(err, "delete graph key")
		}
	}
	return errors.Wrap(batch.Flush(), "flush delete")
}

func (k *KVDB) get(key []byte) ([]byte, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

func (k *KVDB) Close() error {
	return k.db.Close()
}
