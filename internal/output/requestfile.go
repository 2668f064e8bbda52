package output

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/seisquery/fdsnfetch/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// requestFileVersion guards against reading files written by an
// incompatible build.
const requestFileVersion = 1

// requestFile is the on-disk form of a deduplicated request set, so a
// metadata-only run can seed a later data-retrieval run.
type requestFile struct {
	Version   int            `msgpack:"version"`
	RunID     string         `msgpack:"runId"`
	CreatedAt time.Time      `msgpack:"createdAt"`
	Entries   []requestEntry `msgpack:"entries"`
}

type requestEntry struct {
	Key   models.RequestKey `msgpack:"key"`
	Start string            `msgpack:"start"`
	End   string            `msgpack:"end"`
}

// SaveRequests writes the request set to path and returns the run ID
// stamped into the file.
func SaveRequests(path string, reqs *models.RequestSet) (string, error) {
	rf := requestFile{
		Version:   requestFileVersion,
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	for _, key := range reqs.Keys() {
		rng, _ := reqs.Range(key)
		rf.Entries = append(rf.Entries, requestEntry{Key: key, Start: rng.Start, End: rng.End})
	}

	data, err := msgpack.Marshal(&rf)
	if err != nil {
		return "", fmt.Errorf("failed to encode request file: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write request file: %w", err)
	}
	return rf.RunID, nil
}

// LoadRequests reads a request file back into a request set, preserving
// the stored key order and ranges.
func LoadRequests(path string) (*models.RequestSet, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read request file: %w", err)
	}
	var rf requestFile
	if err := msgpack.Unmarshal(data, &rf); err != nil {
		return nil, "", fmt.Errorf("failed to decode request file: %w", err)
	}
	if rf.Version != requestFileVersion {
		return nil, "", fmt.Errorf("request file version %d not supported", rf.Version)
	}

	reqs := models.NewRequestSet()
	for _, entry := range rf.Entries {
		if err := reqs.Fold(entry.Key, entry.Start, entry.End); err != nil {
			return nil, "", fmt.Errorf("request file entry %v: %w", entry.Key, err)
		}
	}
	return reqs, rf.RunID, nil
}
