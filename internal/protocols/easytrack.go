package protocols

import (
	"io"

	"github.com/benmeehan/tracker-gateway/internal/constants"
	"github.com/benmeehan/tracker-gateway/pkg/fields"
	"github.com/benmeehan/tracker-gateway/pkg/identity"
	"github.com/rs/zerolog"
)

const (
	hexDigit = `[0-9A-Fa-f]`
	hexPair  = hexDigit + `{2}`
)

// easyTrackGrammar is the fixed hex sentence, for example
// *ET,135790246811220,DW,A,18030F,0A1E2D,00CDFE60,840CD5B0,03E8,1194,40000400,1F,100,00A0,0000FF,150
var easyTrackGrammar = newGrammar(constants.ProtocolEasyTrack,
	literal("*"), field{name: "manufacturer", pattern: `..`}, literal(","),
	field{name: "imei", pattern: `\d+`, decode: decodeIdentity}, literal(","),
	field{name: "command", pattern: `[^,]{2}`, decode: attrString("command")}, literal(","),
	field{name: "validity", pattern: `[AV]`, decode: decodeValidity}, literal(","),
	field{name: "year", pattern: hexPair, decode: bcdYear},
	field{name: "month", pattern: hexPair, decode: bcdMonth},
	field{name: "day", pattern: hexPair, decode: bcdComponent(func(c *fields.Calendar) *int { return &c.Day })}, literal(","),
	field{name: "hour", pattern: hexPair, decode: bcdComponent(func(c *fields.Calendar) *int { return &c.Hour })},
	field{name: "minute", pattern: hexPair, decode: bcdComponent(func(c *fields.Calendar) *int { return &c.Minute })},
	field{name: "second", pattern: hexPair, decode: bcdComponent(func(c *fields.Calendar) *int { return &c.Second })}, literal(","),
	field{name: "lat_hemisphere", pattern: hexDigit, decode: hemisphereDigit},
	field{name: "latitude", pattern: hexDigit + `{7}`, decode: scaledCoordinate(func(b *builder, v float64) { b.position.Latitude = v })}, literal(","),
	field{name: "lon_hemisphere", pattern: hexDigit, decode: hemisphereDigit},
	field{name: "longitude", pattern: hexDigit + `{7}`, decode: scaledCoordinate(func(b *builder, v float64) { b.position.Longitude = v })}, literal(","),
	field{name: "speed", pattern: hexDigit + `{4}`, decode: hundredths(func(b *builder, v float64) { b.position.Speed = v })}, literal(","),
	field{name: "course", pattern: hexDigit + `{4}`, decode: hundredths(func(b *builder, v float64) { b.position.Course = v })}, literal(","),
	field{name: "status", pattern: hexDigit + `{8}`, decode: attrString("status")}, literal(","),
	field{name: "signal", pattern: hexDigit + `+`, decode: attrString("signal")}, literal(","),
	field{name: "power", pattern: `\d+`, decode: attrDecimal("power")}, literal(","),
	field{name: "oil", pattern: hexDigit + `{4}`, decode: attrHex("oil")}, literal(","),
	field{name: "milage", pattern: hexDigit + `+`, decode: attrHex("milage")}, optionalLiteral(","),
	field{name: "altitude", pattern: `\d+`, optional: true, decode: decodeAltitude},
	anything{},
)

// EasyTrackDecoder decodes the fixed hex sentence. Every sentence carries the
// device identifier and is resolved on its own.
type EasyTrackDecoder struct {
	resolver identity.Resolver
	logger   zerolog.Logger
}

// NewEasyTrackDecoder creates a decoder resolving devices through resolver.
func NewEasyTrackDecoder(resolver identity.Resolver, logger zerolog.Logger) *EasyTrackDecoder {
	return &EasyTrackDecoder{
		resolver: resolver,
		logger:   logger.With().Str("protocol", constants.ProtocolEasyTrack).Logger(),
	}
}

// Protocol returns the protocol name.
func (d *EasyTrackDecoder) Protocol() string {
	return constants.ProtocolEasyTrack
}

// Decode decodes one sentence. The protocol has no acknowledgments, so out is unused.
func (d *EasyTrackDecoder) Decode(session identity.SessionState, _ io.Writer, sentence string) Result {
	m, ok := easyTrackGrammar.match(sentence)
	if !ok {
		return d.reject(ErrGrammarMismatch)
	}

	b := newBuilder(constants.ProtocolEasyTrack, session, d.resolver)
	if err := easyTrackGrammar.decode(m, b); err != nil {
		return d.reject(err)
	}
	return Decoded(b.finish())
}

func (d *EasyTrackDecoder) reject(reason error) Result {
	d.logger.Debug().Err(reason).Msg("Dropping sentence")
	return Rejected(reason)
}

func decodeIdentity(b *builder, value string, _ bool) error {
	return b.identify(value)
}

func decodeValidity(b *builder, value string, _ bool) error {
	b.position.Valid = value == "A"
	return nil
}

func bcdYear(b *builder, value string, _ bool) error {
	year, err := fields.BCDYear(value)
	b.calendar.Year = year
	return err
}

func bcdMonth(b *builder, value string, _ bool) error {
	month, err := fields.BCDMonth(value)
	b.calendar.Month = month
	return err
}

func bcdComponent(target func(*fields.Calendar) *int) decodeFunc {
	return func(b *builder, value string, _ bool) error {
		v, err := fields.BCDComponent(value)
		*target(&b.calendar) = v
		return err
	}
}

func hemisphereDigit(b *builder, value string, _ bool) error {
	sign, err := fields.HemisphereDigit(value)
	b.sign = sign
	return err
}

func scaledCoordinate(set func(*builder, float64)) decodeFunc {
	return func(b *builder, value string, _ bool) error {
		v, err := fields.FixedPointHex(value, constants.CoordinateScale)
		if err != nil {
			return err
		}
		set(b, b.sign*v)
		return nil
	}
}

func hundredths(set func(*builder, float64)) decodeFunc {
	return func(b *builder, value string, _ bool) error {
		v, err := fields.FixedPointHex(value, constants.HundredthsScale)
		if err != nil {
			return err
		}
		set(b, v)
		return nil
	}
}

func attrString(key string) decodeFunc {
	return func(b *builder, value string, present bool) error {
		b.attrs.PutOptional(key, value, present)
		return nil
	}
}

func attrDecimal(key string) decodeFunc {
	return func(b *builder, value string, _ bool) error {
		v, err := fields.ParseDecimal(value)
		if err != nil {
			return err
		}
		b.attrs.PutFloat(key, v)
		return nil
	}
}

func attrHex(key string) decodeFunc {
	return func(b *builder, value string, _ bool) error {
		v, err := fields.HexToInt(value)
		if err != nil {
			return err
		}
		b.attrs.PutInt(key, v)
		return nil
	}
}

func decodeAltitude(b *builder, value string, present bool) error {
	v, err := fields.OptionalFloat(value, present, 0)
	b.position.Altitude = v
	return err
}
