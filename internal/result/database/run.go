package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/go-sod/wknn/internal/codec"
	"github.com/go-sod/wknn/internal/database"
	"github.com/go-sod/wknn/internal/result/model"
)

const (
	runsBucket        = "runs"
	predictionsBucket = "predictions"
)

var ErrNotFound = errors.New("run not found")

type FilterFn func(run model.Run) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

// DB keeps run metadata as JSON and predictions as XDR in a parallel bucket
// under the same run id.
type DB struct {
	sDB *database.DB
}

func (db *DB) Store(_ context.Context, run model.Run) error {
	predictions, err := codec.MarshalSeries(run.Predictions)
	if err != nil {
		return err
	}
	run.Predictions = nil
	meta, err := json.Marshal(run)
	if err != nil {
		return err
	}
	key := run.ID[:]

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		runs, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := runs.Put(key, meta); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		preds, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := preds.Put(key, predictions); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) Find(_ context.Context, id uuid.UUID) (*model.Run, error) {
	var run model.Run
	key := id[:]
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		runs := tx.Bucket([]byte(runsBucket))
		if runs == nil {
			return ErrNotFound
		}
		meta := runs.Get(key)
		if meta == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(meta, &run); err != nil {
			return fmt.Errorf("decode run %s: %w", id, err)
		}
		if preds := tx.Bucket([]byte(predictionsBucket)); preds != nil {
			if data := preds.Get(key); data != nil {
				values, err := codec.UnmarshalSeries(data)
				if err != nil {
					return fmt.Errorf("decode predictions of %s: %w", id, err)
				}
				run.Predictions = values
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FindAll returns run metadata without predictions.
func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Run, error) {
	var list []model.Run
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		runs := tx.Bucket([]byte(runsBucket))
		if runs == nil {
			return nil
		}
		return runs.ForEach(func(_, v []byte) error {
			var run model.Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("decode run: %w", err)
			}
			if filter == nil || filter(run) {
				list = append(list, run)
			}
			return nil
		})
	})
	return list, err
}

func (db *DB) Delete(_ context.Context, id uuid.UUID) error {
	key := id[:]
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{runsBucket, predictionsBucket} {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			if err := b.Delete(key); err != nil {
				return fmt.Errorf("delete from %s: %w", name, err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("delete transaction error: %w", err)
	}
	return nil
}
