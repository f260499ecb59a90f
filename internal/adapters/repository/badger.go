package repository

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/pkg/logger"
	"github.com/okian/cabina/pkg/metrics"
)

// Key layout:
//
//	inc/<created unix nanos, 20 digits>/<id>  -> msgpack(Incident)
//	idx/<id>                                  -> primary key
//
// The zero-padded timestamp keeps primary keys in creation order so a
// reverse scan yields newest first.
const (
	incidentPrefix = "inc/"
	indexPrefix    = "idx/"
)

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db       *badger.DB
	dir      string
	inMemory bool
	logger   logger.Logger
}

// NewBadgerStore opens the store.
func NewBadgerStore(opts ...Option) (*BadgerStore, error) {
	s := &BadgerStore{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if !s.inMemory && s.dir == "" {
		return nil, errors.New("repository: a data directory is required for on-disk mode")
	}

	dbOpts := badger.DefaultOptions(s.dir).WithLogger(badgerLogger{l: s.logger})
	if s.inMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{l: s.logger})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open incident store: %w", err)
	}
	s.db = db
	return s, nil
}

func primaryKey(inc *model.Incident) []byte {
	return fmt.Appendf(nil, "%s%020d/%s", incidentPrefix, inc.CreatedAt.UnixNano(), inc.ID)
}

func indexKey(id string) []byte {
	return []byte(indexPrefix + id)
}

// Save implements Store.
func (s *BadgerStore) Save(ctx context.Context, inc model.Incident) error { //nolint:gocritic // hugeParam: value semantics match the Store contract
	if inc.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidIncident)
	}
	val, err := msgpack.Marshal(&inc)
	if err != nil {
		return fmt.Errorf("encode incident %s: %w", inc.ID, err)
	}
	pk := primaryKey(&inc)

	err = s.db.Update(func(txn *badger.Txn) error {
		// Drop the previous primary row when an ID is re-saved with a new timestamp.
		if item, err := txn.Get(indexKey(inc.ID)); err == nil {
			old, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := txn.Delete(old); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(pk, val); err != nil {
			return err
		}
		return txn.Set(indexKey(inc.ID), pk)
	})
	if err != nil {
		metrics.RecordErrorByComponent("repository", "save")
		return fmt.Errorf("save incident %s: %w", inc.ID, err)
	}

	metrics.RecordIncidentStored()
	s.logger.Debug(ctx, "incident stored", logger.String("incident_id", inc.ID))
	return nil
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, id string) (model.Incident, error) {
	var inc model.Incident
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(id))
		if err != nil {
			return err
		}
		pk, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(pk)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &inc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.Incident{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Incident{}, fmt.Errorf("get incident %s: %w", id, err)
	}
	return inc, nil
}

// List implements Store.
func (s *BadgerStore) List(_ context.Context, limit int) ([]model.Incident, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	prefix := []byte(incidentPrefix)
	out := make([]model.Incident, 0, min(limit, 64))

	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.Reverse = true
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		// In reverse mode Seek lands on the last key <= the seek key.
		seek := append([]byte(incidentPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			var inc model.Incident
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &inc)
			}); err != nil {
				return err
			}
			out = append(out, inc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return out, nil
}

// Count implements Store.
func (s *BadgerStore) Count(_ context.Context) (int, error) {
	prefix := []byte(indexPrefix)
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return n, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger forwards badger warnings and errors; info and debug chatter is dropped.
type badgerLogger struct {
	l logger.Logger
}

func (b badgerLogger) Errorf(f string, v ...any) {
	b.l.Error(context.Background(), "badger: "+fmt.Sprintf(f, v...))
}

func (b badgerLogger) Warningf(f string, v ...any) {
	b.l.Warn(context.Background(), "badger: "+fmt.Sprintf(f, v...))
}

func (badgerLogger) Infof(string, ...any)  {}
func (badgerLogger) Debugf(string, ...any) {}
