// Package fetch issues the deduplicated data requests and lands the raw
// response bodies on disk: waveform data appended to one shared file,
// response/pole-zero data written one file per channel.
package fetch

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/seisquery/fdsnfetch/internal/diag"
	"github.com/seisquery/fdsnfetch/internal/fdsnws"
	"github.com/seisquery/fdsnfetch/internal/models"
)

// Fetcher runs one GET per request key, strictly sequentially.
type Fetcher struct {
	Client *fdsnws.Client
	Log    *diag.Logger
}

// Summary aggregates one fetch pass.
type Summary struct {
	Requests   int
	WithData   int
	NoData     int
	Errors     int
	TotalBytes int64
}

// buildDataQuery renders a time-series (or pole-zero/response) query for
// one key. When the user left the requested window open on either side,
// the widened epoch range observed during metadata extraction substitutes
// for the missing bound.
func buildDataQuery(endpoint string, key models.RequestKey, rng models.RequestRange) string {
	start := key.WindowStart
	if start == "" {
		start = rng.Start
	}
	end := key.WindowEnd
	if end == "" {
		end = rng.End
	}

	v := url.Values{}
	v.Set("net", key.Network)
	v.Set("sta", key.Station)
	v.Set("loc", key.Location)
	v.Set("cha", key.Channel)
	if start != "" {
		v.Set("starttime", start)
	}
	if end != "" {
		v.Set("endtime", end)
	}
	if key.Quality != "" {
		v.Set("quality", key.Quality)
	}
	return endpoint + "?" + v.Encode()
}

// keyLabel is the diagnostic name of a request key.
func keyLabel(key models.RequestKey) string {
	return strings.Join([]string{key.Network, key.Station, key.Location, key.Channel}, ".")
}

// Waveforms fetches every key in order and appends the raw bodies to w.
// Per-key HTTP errors are logged, counted and skipped; they never stop
// the remaining keys. Write failures on the shared sink are fatal.
func (f *Fetcher) Waveforms(ctx context.Context, endpoint string, reqs *models.RequestSet, w io.Writer) (Summary, error) {
	var sum Summary
	for _, key := range reqs.Keys() {
		rng, _ := reqs.Range(key)
		sum.Requests++

		body, status, err := f.Client.Get(ctx, buildDataQuery(endpoint, key, rng))
		switch status {
		case fdsnws.StatusNoData:
			sum.NoData++
			f.Log.Info("%s: no data available", keyLabel(key))
			continue
		case fdsnws.StatusError:
			sum.Errors++
			f.Log.Error("%s: %v", keyLabel(key), err)
			continue
		}

		n, err := io.Copy(w, body)
		body.Close()
		sum.TotalBytes += n
		if err != nil {
			// The shared output file is the run's primary sink; a write
			// failure here cannot be recovered per-key.
			return sum, err
		}
		sum.WithData++
		f.Log.Info("%s: received %s", keyLabel(key), ByteSize(n))
	}
	return sum, nil
}

// PerChannelFiles fetches every key into its own file named
// <prefix>.NET.STA.LOC.CHA under dir. Keys that yield no data or an HTTP
// error leave no file behind: the just-created empty file is removed.
// A filesystem failure skips only the affected key.
func (f *Fetcher) PerChannelFiles(ctx context.Context, endpoint, dir, prefix string, reqs *models.RequestSet) Summary {
	var sum Summary
	for _, key := range reqs.Keys() {
		rng, _ := reqs.Range(key)
		sum.Requests++

		name := strings.Join([]string{prefix, key.Network, key.Station, key.Location, key.Channel}, ".")
		path := filepath.Join(dir, name)

		out, err := os.Create(path)
		if err != nil {
			sum.Errors++
			f.Log.Error("%s: cannot create %s: %v", keyLabel(key), path, err)
			continue
		}

		body, status, err := f.Client.Get(ctx, buildDataQuery(endpoint, key, rng))
		if status != fdsnws.StatusOK {
			out.Close()
			os.Remove(path)
			if status == fdsnws.StatusError {
				sum.Errors++
				f.Log.Error("%s: %v", keyLabel(key), err)
			} else {
				sum.NoData++
				f.Log.Info("%s: no data available", keyLabel(key))
			}
			continue
		}

		n, copyErr := io.Copy(out, body)
		body.Close()
		closeErr := out.Close()
		if copyErr != nil || closeErr != nil {
			os.Remove(path)
			sum.Errors++
			f.Log.Error("%s: write failed: %v", keyLabel(key), firstErr(copyErr, closeErr))
			continue
		}

		sum.WithData++
		sum.TotalBytes += n
		f.Log.Info("%s: wrote %s (%s)", keyLabel(key), path, ByteSize(n))
	}
	return sum
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
