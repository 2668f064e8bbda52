package models

// ChannelEpoch is one channel-level operating epoch extracted from a
// StationXML response. Numeric values are kept as the strings the service
// sent: a blank field is meaningful (absent element) and must not collapse
// to "0" in delimited output. Records are immutable once emitted and keep
// the response order.
type ChannelEpoch struct {
	Network          string
	Station          string
	Location         string
	Channel          string
	Latitude         string
	Longitude        string
	Elevation        string
	Depth            string
	Azimuth          string
	Dip              string
	Instrument       string
	SampleRate       string
	Sensitivity      string
	SensitivityFreq  string
	SensitivityUnits string
	Start            string
	End              string
}

// StationEpoch is the station-level variant emitted when only station
// listings were requested.
type StationEpoch struct {
	Network   string
	Station   string
	Latitude  string
	Longitude string
	Elevation string
	SiteName  string
	Start     string
	End       string
}
