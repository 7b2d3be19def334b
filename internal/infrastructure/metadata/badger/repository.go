// Package badger stores Material records in an embedded BadgerDB.
//
// Key layout:
//
//	seq/material                    -> last assigned id (uint64, big endian)
//	m/<branch>\x00<id>              -> Material JSON, id big endian so keys sort by insertion
//	f/<branch>\x00<fileName>        -> id
//
// The counter and both keys are written in one transaction, so a record and
// its id become visible together.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/studyhub/materials-portal/internal/core/domain"
	"github.com/studyhub/materials-portal/internal/core/ports"
)

var sequenceKey = []byte("seq/material")

type Config struct {
	Dir string
	// InMemory ignores Dir and keeps everything in RAM. Used by tests.
	InMemory bool
}

type Repository struct {
	// mu serialises Append so the counter read and write never interleave.
	mu sync.Mutex
	db *badger.DB
}

var _ ports.MaterialRepository = (*Repository)(nil)

func Open(cfg Config) (*Repository, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Dir, err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Append(ctx context.Context, m *domain.Material) (*domain.Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.ContainsRune(m.Branch, 0) {
		return nil, fmt.Errorf("%w: branch contains NUL", domain.ErrInvalidPath)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record := *m
	err := r.db.Update(func(txn *badger.Txn) error {
		var last uint64
		item, err := txn.Get(sequenceKey)
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				if len(val) != 8 {
					return fmt.Errorf("invalid sequence length: %d", len(val))
				}
				last = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		record.ID = last + 1
		id := encodeID(record.ID)

		data, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		if err := txn.Set(sequenceKey, id); err != nil {
			return err
		}
		if err := txn.Set(recordKey(record.Branch, record.ID), data); err != nil {
			return err
		}
		return txn.Set(fileKey(record.Branch, record.FileName), id)
	})
	if err != nil {
		return nil, fmt.Errorf("append material: %w", err)
	}
	return &record, nil
}

func (r *Repository) ListByBranch(ctx context.Context, branch string) ([]domain.Material, error) {
	out := make([]domain.Material, 0)
	if strings.ContainsRune(branch, 0) {
		return out, nil
	}

	prefix := branchPrefix(branch)
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var m domain.Material
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return err
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return out, nil
}

func (r *Repository) FindByFileName(ctx context.Context, branch, fileName string) (*domain.Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.ContainsRune(branch, 0) {
		return nil, domain.ErrFileNotFound
	}

	var m domain.Material
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(fileKey(branch, fileName))
		if err != nil {
			return err
		}
		var id uint64
		if err := item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("invalid id length: %d", len(val))
			}
			id = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return err
		}

		item, err = txn.Get(recordKey(branch, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find material: %w", err)
	}
	return &m, nil
}

func (r *Repository) Ping(context.Context) error {
	if r.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func encodeID(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func branchPrefix(branch string) []byte {
	return []byte("m/" + branch + "\x00")
}

func recordKey(branch string, id uint64) []byte {
	return append(branchPrefix(branch), encodeID(id)...)
}

func fileKey(branch, fileName string) []byte {
	return []byte("f/" + branch + "\x00" + fileName)
}
