// Command fetchmetadata queries an FDSN metadata service for the channels
// (or stations) matching a set of selections and writes a delimited
// listing, without fetching any time-series data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/seisquery/fdsnfetch/internal/diag"
	"github.com/seisquery/fdsnfetch/internal/fdsnws"
	"github.com/seisquery/fdsnfetch/internal/models"
	"github.com/seisquery/fdsnfetch/internal/output"
	"github.com/seisquery/fdsnfetch/internal/pipeline"
	"github.com/seisquery/fdsnfetch/internal/selection"
	"github.com/seisquery/fdsnfetch/internal/stationxml"
	"github.com/seisquery/fdsnfetch/internal/store"
)

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

	metadataOut  string
	rawXMLOut    string
	dbPath       string
	writeKeys    string
	stationLevel bool
	respLevel    bool

	updatedAfter    string
	matchTimeSeries bool

	appID       string
	credentials string

	endpointsFile string
	metadataWS    string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("fetchmetadata", flag.ContinueOnError)

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
	fs.StringVar(&opts.metadataOut, "m", "", "metadata listing output file (default stdout)")
	fs.StringVar(&opts.rawXMLOut, "X", "", "save raw StationXML responses to file")
	fs.StringVar(&opts.dbPath, "db", "", "DuckDB metadata sink file")
	fs.StringVar(&opts.writeKeys, "wk", "", "write deduplicated request keys to file")
	fs.BoolVar(&opts.stationLevel, "msl", false, "station-level listing only")
	fs.BoolVar(&opts.respLevel, "rlo", false, "query at response level")
	fs.StringVar(&opts.updatedAfter, "ua", "", "select metadata updated after this time")
	fs.BoolVar(&opts.matchTimeSeries, "mts", false, "select only channels with matching time series")
	fs.StringVar(&opts.appID, "A", "", "application identification string")
	fs.StringVar(&opts.credentials, "a", "", "user:pass credentials for restricted data")
	fs.StringVar(&opts.endpointsFile, "endpoints", "", "YAML service endpoints file")
	fs.StringVar(&opts.metadataWS, "metadataws", "", "metadata service URL override")

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
	log := diag.New("fetchmetadata", int(opts.verbosity))

	selections, fatal := gatherSelections(opts, log)
	if fatal {
		return 1
	}
	if len(selections) == 0 {
		log.Error("no data selections supplied")
		return 1
	}

	eps, err := fdsnws.ResolveEndpoints(opts.endpointsFile, fdsnws.Endpoints{Metadata: opts.metadataWS})
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	client, err := fdsnws.NewClient(opts.appID, opts.credentials)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	level := stationxml.LevelChannel
	if opts.stationLevel {
		level = stationxml.LevelStation
	} else if opts.respLevel {
		level = stationxml.LevelResponse
	}

	md, err := pipeline.CollectMetadata(context.Background(), client, log, pipeline.Config{
		MetadataEndpoint: eps.Metadata,
		Level:            level,
		UpdatedAfter:     opts.updatedAfter,
		MatchTimeSeries:  opts.matchTimeSeries,
		RawXMLPath:       opts.rawXMLOut,
	}, selections)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	if err := writeListing(opts, md); err != nil {
		log.Error("%v", err)
		return 1
	}

	if opts.dbPath != "" && len(md.Channels) > 0 {
		db, err := store.NewEpochStore(opts.dbPath)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		if err := db.AddAll(md.Channels); err != nil {
			db.Close()
			log.Error("%v", err)
			return 1
		}
		if err := db.Close(); err != nil {
			log.Error("%v", err)
			return 1
		}
		log.Info("stored %d channel epochs in %s", len(md.Channels), opts.dbPath)
	}

	if opts.writeKeys != "" {
		runID, err := output.SaveRequests(opts.writeKeys, md.Requests)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		log.Info("wrote %d request keys to %s (run %s)", md.Requests.Len(), opts.writeKeys, runID)
	}

	if md.HTTPErrors > 0 {
		log.Error("completed with %d request errors", md.HTTPErrors)
		return 1
	}
	return 0
}

func writeListing(opts *options, md *pipeline.Metadata) error {
	out := os.Stdout
	if opts.metadataOut != "" {
		f, err := os.Create(opts.metadataOut)
		if err != nil {
			return fmt.Errorf("cannot open metadata output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if opts.stationLevel {
		return output.WriteStationMetadata(out, md.Stations)
	}
	return output.WriteChannelMetadata(out, md.Channels)
}

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
