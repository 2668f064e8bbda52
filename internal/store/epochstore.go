// Package store persists extracted channel epochs into a local DuckDB
// file so metadata harvested across many runs stays queryable.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/marcboeker/go-duckdb"
	"github.com/seisquery/fdsnfetch/internal/models"
)

const insertBatchSize = 500

// EpochStore is a DuckDB-backed sink for channel epochs. Rows are
// buffered and flushed in batches; Close flushes the remainder.
type EpochStore struct {
	db    *sql.DB
	batch []models.ChannelEpoch
}

// NewEpochStore opens (or creates) the DuckDB file at dbPath and ensures
// the channel_epochs table exists.
func NewEpochStore(dbPath string) (*EpochStore, error) {
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='512MB'",
			"PRAGMA threads=2",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS channel_epochs (
			network     VARCHAR NOT NULL,
			station     VARCHAR NOT NULL,
			location    VARCHAR NOT NULL,
			channel     VARCHAR NOT NULL,
			latitude    VARCHAR,
			longitude   VARCHAR,
			elevation   VARCHAR,
			depth       VARCHAR,
			azimuth     VARCHAR,
			dip         VARCHAR,
			instrument  VARCHAR,
			scale       VARCHAR,
			scale_freq  VARCHAR,
			scale_units VARCHAR,
			sample_rate VARCHAR,
			start_time  VARCHAR NOT NULL,
			end_time    VARCHAR
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create channel_epochs table: %w", err)
	}

	return &EpochStore{db: db}, nil
}

// Add buffers one epoch, flushing when the batch fills.
func (s *EpochStore) Add(ep models.ChannelEpoch) error {
	s.batch = append(s.batch, ep)
	if len(s.batch) >= insertBatchSize {
		return s.flush()
	}
	return nil
}

// AddAll buffers a slice of epochs.
func (s *EpochStore) AddAll(epochs []models.ChannelEpoch) error {
	for _, ep := range epochs {
		if err := s.Add(ep); err != nil {
			return err
		}
	}
	return nil
}

// Count reports the stored row count.
func (s *EpochStore) Count() (int, error) {
	if err := s.flush(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM channel_epochs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count epochs: %w", err)
	}
	return n, nil
}

// Close flushes the pending batch and releases the database.
func (s *EpochStore) Close() error {
	flushErr := s.flush()
	closeErr := s.db.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (s *EpochStore) flush() error {
	if len(s.batch) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(s.batch))
	args := make([]interface{}, 0, len(s.batch)*17)
	for _, ep := range s.batch {
		placeholders = append(placeholders, "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			ep.Network, ep.Station, ep.Location, ep.Channel,
			ep.Latitude, ep.Longitude, ep.Elevation, ep.Depth,
			ep.Azimuth, ep.Dip, ep.Instrument,
			ep.Sensitivity, ep.SensitivityFreq, ep.SensitivityUnits,
			ep.SampleRate, ep.Start, ep.End)
	}

	query := "INSERT INTO channel_epochs VALUES " + strings.Join(placeholders, ",")
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert epoch batch: %w", err)
	}
	s.batch = s.batch[:0]
	return nil
}
