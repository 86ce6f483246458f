package constants

// Protocol names, also used as the sidecar protocol tag.
const (
	ProtocolEasyTrack = "easytrack"
	ProtocolWialon    = "wialon"
)

// Scale factors and unit conversions.
const (
	// CoordinateScale converts 1/10000 minute counts to degrees.
	CoordinateScale = 600000.0
	// HundredthsScale converts values sent in hundredths.
	HundredthsScale = 100.0
	// KnotsPerKmh converts km/h to knots.
	KnotsPerKmh = 0.539957
	// MinValidSatellites is the satellite count from which a wialon fix is valid.
	MinValidSatellites = 3
)

// Wialon acknowledgment prefixes.
const (
	WialonLoginAck   = "#AL#"
	WialonPingAck    = "#AP#"
	WialonDataAck    = "#AD#"
	WialonBatchAck   = "#AB#"
	WialonAckSuffix  = "\r\n"
	WialonLogin      = "#L#"
	WialonPing       = "#P#"
	WialonShortData  = "#SD#"
	WialonData       = "#D#"
	WialonBatch      = "#B#"
	WialonBatchSplit = "|"
)

// Default frame delimiters per protocol.
const (
	EasyTrackDelimiter = "#"
	WialonDelimiter    = "\r\n"
)
