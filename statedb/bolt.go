package statedb

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/image-copyright-registry/interfaces"
	bolt "go.etcd.io/bbolt"
)

var eventsBucket = []byte("registry_events")

// BoltJournal stores registry events in a bbolt file, keyed by big-endian sequence number.
type BoltJournal struct {
	db  *bolt.DB
	log *slog.Logger
}

var _ interfaces.EventJournal = (*BoltJournal)(nil)

func NewBoltJournal(path string, log *slog.Logger) (*BoltJournal, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(eventsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create events bucket: %w", err)
	}

	log.Debug("bolt journal opened", "path", path)
	return &BoltJournal{db: db, log: log}, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func (j *BoltJournal) Append(ctx context.Context, ev interfaces.RegistryEvent) (interfaces.RegistryEvent, error) {
	err := j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		if ev.Seq == 0 {
			next, err := b.NextSequence()
			if err != nil {
				return err
			}
			ev.Seq = next
		} else if ev.Seq > b.Sequence() {
			if err := b.SetSequence(ev.Seq); err != nil {
				return err
			}
		}

		payload, err := interfaces.EncodeEvent(ev)
		if err != nil {
			return err
		}
		return b.Put(seqKey(ev.Seq), payload)
	})
	if err != nil {
		return ev, fmt.Errorf("failed to append event: %w", err)
	}
	return ev, nil
}

func (j *BoltJournal) Replay(ctx context.Context, fn func(interfaces.RegistryEvent) error) error {
	events, err := j.Since(ctx, 0, 0)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

func (j *BoltJournal) Since(ctx context.Context, afterSeq uint64, limit int) ([]interfaces.RegistryEvent, error) {
	events := []interfaces.RegistryEvent{}
	if afterSeq >= maxSeq {
		return events, nil
	}
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(eventsBucket).Cursor()
		for k, v := c.Seek(seqKey(afterSeq + 1)); k != nil; k, v = c.Next() {
			if limit > 0 && len(events) >= limit {
				break
			}
			ev, err := interfaces.DecodeEvent(v)
			if err != nil {
				return err
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

func (j *BoltJournal) Close() error {
	return j.db.Close()
}
