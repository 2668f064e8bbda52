// Command fetchdata selects seismic channels against an FDSN metadata
// service and downloads the matching time-series data, with optional
// per-channel SACPZ/RESP downloads and a delimited metadata listing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/seisquery/fdsnfetch/internal/diag"
	"github.com/seisquery/fdsnfetch/internal/fdsnws"
	"github.com/seisquery/fdsnfetch/internal/fetch"
	"github.com/seisquery/fdsnfetch/internal/models"
	"github.com/seisquery/fdsnfetch/internal/output"
	"github.com/seisquery/fdsnfetch/internal/pipeline"
	"github.com/seisquery/fdsnfetch/internal/selection"
	"github.com/seisquery/fdsnfetch/internal/stationxml"
	"github.com/seisquery/fdsnfetch/internal/store"
)

// countFlag counts repeated occurrences, e.g. -v -v.
type countFlag int

func (c *countFlag) String() string { return strconv.Itoa(int(*c)) }

func (c *countFlag) Set(string) error {
	*c++
	return nil
}

func (c *countFlag) IsBoolFlag() bool { return true }

type options struct {
	verbosity countFlag

	network  string
	station  string
	location string
	channel  string
	quality  string
	start    string
	end      string

	listFile   string
	legacyFile string

	waveformOut string
	metadataOut string
	sacpzDir    string
	respDir     string
	rawXMLOut   string
	dbPath      string
	writeKeys   string
	readKeys    string

	updatedAfter    string
	matchTimeSeries bool

	appID       string
	credentials string

	endpointsFile string
	metadataWS    string
	timeseriesWS  string
	sacpzWS       string
	respWS        string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("fetchdata", flag.ContinueOnError)

	fs.Var(&opts.verbosity, "v", "increase verbosity (repeatable)")
	fs.StringVar(&opts.network, "N", "", "network code or pattern")
	fs.StringVar(&opts.station, "S", "", "station code or pattern")
	fs.StringVar(&opts.location, "L", "", "location code or pattern")
	fs.StringVar(&opts.channel, "C", "", "channel code or pattern")
	fs.StringVar(&opts.quality, "Q", "", "data quality code")
	fs.StringVar(&opts.start, "s", "", "window start time")
	fs.StringVar(&opts.end, "e", "", "window end time")
	fs.StringVar(&opts.listFile, "l", "", "selection list file")
	fs.StringVar(&opts.legacyFile, "b", "", "legacy fixed-field request file")
	fs.StringVar(&opts.waveformOut, "o", "", "waveform output file")
	fs.StringVar(&opts.metadataOut, "m", "", "metadata listing output file")
	fs.StringVar(&opts.sacpzDir, "sd", "", "directory for per-channel SACPZ files")
	fs.StringVar(&opts.respDir, "rd", "", "directory for per-channel RESP files")
	fs.StringVar(&opts.rawXMLOut, "X", "", "save raw StationXML responses to file")
	fs.StringVar(&opts.dbPath, "db", "", "DuckDB metadata sink file")
	fs.StringVar(&opts.writeKeys, "wk", "", "write deduplicated request keys to file")
	fs.StringVar(&opts.readKeys, "rk", "", "read request keys from file, skipping metadata queries")
	fs.StringVar(&opts.updatedAfter, "ua", "", "select metadata updated after this time")
	fs.BoolVar(&opts.matchTimeSeries, "mts", false, "select only channels with matching time series")
	fs.StringVar(&opts.appID, "A", "", "application identification string")
	fs.StringVar(&opts.credentials, "a", "", "user:pass credentials for restricted data")
	fs.StringVar(&opts.endpointsFile, "endpoints", "", "YAML service endpoints file")
	fs.StringVar(&opts.metadataWS, "metadataws", "", "metadata service URL override")
	fs.StringVar(&opts.timeseriesWS, "timeseriesws", "", "time-series service URL override")
	fs.StringVar(&opts.sacpzWS, "sacpzws", "", "SACPZ service URL override")
	fs.StringVar(&opts.respWS, "respws", "", "RESP service URL override")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args)
	if err != nil {
		return 2
	}
	log := diag.New("fetchdata", int(opts.verbosity))

	if opts.waveformOut == "" && opts.metadataOut == "" && opts.sacpzDir == "" &&
		opts.respDir == "" && opts.writeKeys == "" && opts.dbPath == "" {
		log.Error("no output requested: need at least one of -o, -m, -sd, -rd, -wk, -db")
		return 1
	}

	selections, fatal := gatherSelections(opts, log)
	if fatal {
		return 1
	}
	if len(selections) == 0 && opts.readKeys == "" {
		log.Error("no data selections supplied")
		return 1
	}

	eps, err := fdsnws.ResolveEndpoints(opts.endpointsFile, fdsnws.Endpoints{
		Metadata:   opts.metadataWS,
		TimeSeries: opts.timeseriesWS,
		SACPZ:      opts.sacpzWS,
		Resp:       opts.respWS,
	})
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	client, err := fdsnws.NewClient(opts.appID, opts.credentials)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	ctx := context.Background()
	httpErrors := 0
	var reqs *models.RequestSet

	if opts.readKeys != "" {
		loaded, runID, err := output.LoadRequests(opts.readKeys)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		log.Info("loaded %d request keys from %s (run %s)", loaded.Len(), opts.readKeys, runID)
		reqs = loaded
	} else {
		md, err := pipeline.CollectMetadata(ctx, client, log, pipeline.Config{
			MetadataEndpoint: eps.Metadata,
			Level:            stationxml.LevelChannel,
			UpdatedAfter:     opts.updatedAfter,
			MatchTimeSeries:  opts.matchTimeSeries,
			RawXMLPath:       opts.rawXMLOut,
		}, selections)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		httpErrors += md.HTTPErrors
		reqs = md.Requests
		log.Info("matched %d channel epochs, %d distinct requests", len(md.Channels), reqs.Len())

		if opts.metadataOut != "" {
			if err := writeMetadataFile(opts.metadataOut, md.Channels); err != nil {
				log.Error("%v", err)
				return 1
			}
		}
		if opts.dbPath != "" {
			if err := storeEpochs(opts.dbPath, md.Channels, log); err != nil {
				log.Error("%v", err)
				return 1
			}
		}
	}

	if opts.writeKeys != "" {
		runID, err := output.SaveRequests(opts.writeKeys, reqs)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		log.Info("wrote %d request keys to %s (run %s)", reqs.Len(), opts.writeKeys, runID)
	}

	fetcher := &fetch.Fetcher{Client: client, Log: log}

	if opts.waveformOut != "" {
		out, err := os.Create(opts.waveformOut)
		if err != nil {
			// The shared waveform file is the run's primary sink.
			log.Error("cannot open waveform output: %v", err)
			return 1
		}
		sum, err := fetcher.Waveforms(ctx, eps.TimeSeries, reqs, out)
		closeErr := out.Close()
		if err != nil || closeErr != nil {
			log.Error("waveform output failed: %v", firstNonNil(err, closeErr))
			return 1
		}
		httpErrors += sum.Errors
		log.Info("waveforms: %d requests, %d with data, %s total",
			sum.Requests, sum.WithData, fetch.ByteSize(sum.TotalBytes))
	}

	if opts.sacpzDir != "" {
		if err := os.MkdirAll(opts.sacpzDir, 0755); err != nil {
			log.Error("cannot create SACPZ directory: %v", err)
			return 1
		}
		sum := fetcher.PerChannelFiles(ctx, eps.SACPZ, opts.sacpzDir, "SACPZ", reqs)
		httpErrors += sum.Errors
		log.Info("SACPZ: %d requests, %d files written", sum.Requests, sum.WithData)
	}
	if opts.respDir != "" {
		if err := os.MkdirAll(opts.respDir, 0755); err != nil {
			log.Error("cannot create RESP directory: %v", err)
			return 1
		}
		sum := fetcher.PerChannelFiles(ctx, eps.Resp, opts.respDir, "RESP", reqs)
		httpErrors += sum.Errors
		log.Info("RESP: %d requests, %d files written", sum.Requests, sum.WithData)
	}

	if httpErrors > 0 {
		log.Error("completed with %d request errors", httpErrors)
		return 1
	}
	return 0
}

// gatherSelections assembles the ordered selection sequence: the CLI
// record first, then the selection-list file, then the legacy file. A
// malformed CLI time is fatal; bad file lines are per-line skips.
func gatherSelections(opts *options, log *diag.Logger) ([]models.SelectionRecord, bool) {
	var selections []models.SelectionRecord

	if opts.network != "" || opts.station != "" || opts.location != "" ||
		opts.channel != "" || opts.start != "" || opts.end != "" {
		rec, err := selection.FromFlags(opts.network, opts.station, opts.location,
			opts.channel, opts.quality, opts.start, opts.end)
		if err != nil {
			log.Error("%v", err)
			return nil, true
		}
		selections = append(selections, rec)
	}

	if opts.listFile != "" {
		f, err := os.Open(opts.listFile)
		if err != nil {
			log.Error("cannot open selection list: %v", err)
			return nil, true
		}
		records, skipped := selection.ParseListFile(f)
		f.Close()
		for _, pe := range skipped {
			log.Debug("selection list line %d skipped: %s", pe.Line, pe.Reason)
		}
		selections = append(selections, records...)
	}

	if opts.legacyFile != "" {
		f, err := os.Open(opts.legacyFile)
		if err != nil {
			log.Error("cannot open request file: %v", err)
			return nil, true
		}
		records, skipped := selection.ParseLegacyFile(f)
		f.Close()
		for _, pe := range skipped {
			log.Warn("request file line %d skipped: %s", pe.Line, pe.Reason)
		}
		selections = append(selections, records...)
	}

	return selections, false
}

func writeMetadataFile(path string, epochs []models.ChannelEpoch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot open metadata output: %w", err)
	}
	if err := output.WriteChannelMetadata(f, epochs); err != nil {
		f.Close()
		return fmt.Errorf("cannot write metadata output: %w", err)
	}
	return f.Close()
}

func storeEpochs(dbPath string, epochs []models.ChannelEpoch, log *diag.Logger) error {
	db, err := store.NewEpochStore(dbPath)
	if err != nil {
		return err
	}
	if err := db.AddAll(epochs); err != nil {
		db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return err
	}
	log.Info("stored %d channel epochs in %s", len(epochs), dbPath)
	return nil
}

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
