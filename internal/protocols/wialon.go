package protocols

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/benmeehan/tracker-gateway/internal/constants"
	"github.com/benmeehan/tracker-gateway/internal/models"
	"github.com/benmeehan/tracker-gateway/pkg/attributes"
	"github.com/benmeehan/tracker-gateway/pkg/fields"
	"github.com/benmeehan/tracker-gateway/pkg/identity"
	"github.com/rs/zerolog"
)

const decimal = `\d+\.?\d*`

// wialonGrammar is the body of a data frame and of every batch element, for example
// 150324;103045;5544.6025;N;03739.6834;E;10;45;150;7;1.5;3;1;100,200;NA;temp:2:23.5
var wialonGrammar = newGrammar(constants.ProtocolWialon,
	field{name: "day", pattern: `\d{2}`, decode: decimalComponent(func(c *fields.Calendar, v int) { c.Day = v })},
	field{name: "month", pattern: `\d{2}`, decode: decimalComponent(func(c *fields.Calendar, v int) { c.Month = v - 1 })},
	field{name: "year", pattern: `\d{2}`, decode: decimalComponent(func(c *fields.Calendar, v int) { c.Year = fields.YearEpoch + v })}, literal(";"),
	field{name: "hour", pattern: `\d{2}`, decode: decimalComponent(func(c *fields.Calendar, v int) { c.Hour = v })},
	field{name: "minute", pattern: `\d{2}`, decode: decimalComponent(func(c *fields.Calendar, v int) { c.Minute = v })},
	field{name: "second", pattern: `\d{2}`, decode: decimalComponent(func(c *fields.Calendar, v int) { c.Second = v })}, literal(";"),
	field{name: "lat_degrees", pattern: `\d{2}`, decode: decodeDegrees},
	field{name: "lat_minutes", pattern: `\d{2}\.\d+`, decode: decodeMinutes}, literal(";"),
	field{name: "lat_hemisphere", pattern: `[NS]`, decode: hemisphereLetter(func(b *builder, v float64) { b.position.Latitude = v })}, literal(";"),
	field{name: "lon_degrees", pattern: `\d{3}`, decode: decodeDegrees},
	field{name: "lon_minutes", pattern: `\d{2}\.\d+`, decode: decodeMinutes}, literal(";"),
	field{name: "lon_hemisphere", pattern: `[EW]`, decode: hemisphereLetter(func(b *builder, v float64) { b.position.Longitude = v })}, literal(";"),
	field{name: "speed", pattern: decimal, optional: true, decode: decodeSpeedKmh}, literal(";"),
	field{name: "course", pattern: decimal, optional: true, decode: decodeCourse}, literal(";"),
	field{name: "altitude", pattern: decimal, na: true, decode: decodeAltitude}, literal(";"),
	field{name: "satellites", pattern: `\d+`, na: true, decode: decodeSatellites},
	optionalGroup{
		literal(";"),
		field{name: "hdop", pattern: decimal, na: true, decode: attrString("hdop")}, literal(";"),
		field{name: "inputs", pattern: `\d+`, na: true, decode: attrString("inputs")}, literal(";"),
		field{name: "outputs", pattern: `\d+`, na: true, decode: attrString("outputs")}, literal(";"),
		field{name: "adc", pattern: `[^;]*`, na: true, decode: decodeADC}, literal(";"),
		field{name: "ibutton", pattern: `[^;]*`, na: true, decode: attrString("ibutton")}, literal(";"),
		field{name: "params", pattern: `.*`, na: true, decode: decodeParams},
	},
)

// paramPattern is one element of the free-form parameter list: name:type:value.
var paramPattern = regexp.MustCompile(`^(.*):[1-3]:(.*)$`)

// WialonDecoder decodes the delimited protocol. A connection identifies itself
// once with a login frame; data frames before that are rejected.
type WialonDecoder struct {
	resolver identity.Resolver
	logger   zerolog.Logger
}

// NewWialonDecoder creates a decoder resolving logins through resolver.
func NewWialonDecoder(resolver identity.Resolver, logger zerolog.Logger) *WialonDecoder {
	return &WialonDecoder{
		resolver: resolver,
		logger:   logger.With().Str("protocol", constants.ProtocolWialon).Logger(),
	}
}

// Protocol returns the protocol name.
func (d *WialonDecoder) Protocol() string {
	return constants.ProtocolWialon
}

// Decode classifies frame by its prefix, decodes it and writes the acknowledgment.
func (d *WialonDecoder) Decode(session identity.SessionState, out io.Writer, frame string) Result {
	switch {
	case strings.HasPrefix(frame, constants.WialonLogin):
		return d.decodeLogin(session, out, frame)

	case strings.HasPrefix(frame, constants.WialonPing):
		d.respond(out, constants.WialonPingAck)
		return Acknowledged()

	case strings.HasPrefix(frame, constants.WialonShortData), strings.HasPrefix(frame, constants.WialonData):
		position, err := d.decodePosition(session, payload(frame))
		if err != nil {
			return Rejected(err)
		}
		d.respond(out, constants.WialonDataAck+"1")
		return Decoded(position)

	case strings.HasPrefix(frame, constants.WialonBatch):
		return d.decodeBatch(session, out, frame)
	}

	return Rejected(ErrUnrecognizedFrame)
}

func (d *WialonDecoder) decodeLogin(session identity.SessionState, out io.Writer, frame string) Result {
	end := strings.IndexByte(frame, ';')
	if end < 0 {
		return Rejected(ErrGrammarMismatch)
	}
	externalID := frame[len(constants.WialonLogin):end]

	deviceID, ok := d.resolver.Resolve(externalID)
	if !ok {
		return Rejected(fmt.Errorf("%w: %s", ErrUnknownDevice, externalID))
	}
	session.Bind(deviceID)
	d.logger.Debug().Str("external_id", externalID).Str("device_id", deviceID).Msg("Device identified")

	d.respond(out, constants.WialonLoginAck+"1")
	return Acknowledged()
}

// decodeBatch acknowledges the number of elements attempted, whatever the
// number that decoded.
func (d *WialonDecoder) decodeBatch(session identity.SessionState, out io.Writer, frame string) Result {
	messages := fields.Split(payload(frame), constants.WialonBatchSplit)

	var positions []*models.Position
	for i, message := range messages {
		position, err := d.decodePosition(session, message)
		if err != nil {
			d.logger.Debug().Err(err).Int("index", i).Msg("Dropping batch element")
			continue
		}
		positions = append(positions, position)
	}

	d.respond(out, constants.WialonBatchAck+strconv.Itoa(len(messages)))
	if len(positions) == 0 {
		return Rejected(ErrEmptyBatch)
	}
	return Decoded(positions...)
}

func (d *WialonDecoder) decodePosition(session identity.SessionState, sentence string) (*models.Position, error) {
	deviceID, ok := session.DeviceID()
	if !ok {
		return nil, ErrNotIdentified
	}

	m, ok := wialonGrammar.match(sentence)
	if !ok {
		return nil, ErrGrammarMismatch
	}

	// identity comes from the login, sentences never resolve on their own
	b := newBuilder(constants.ProtocolWialon, session, nil)
	b.start(deviceID)
	if err := wialonGrammar.decode(m, b); err != nil {
		return nil, err
	}
	return b.finish(), nil
}

func (d *WialonDecoder) respond(out io.Writer, ack string) {
	if out == nil {
		return
	}
	if _, err := io.WriteString(out, ack+constants.WialonAckSuffix); err != nil {
		d.logger.Warn().Err(err).Str("ack", ack).Msg("Failed to write acknowledgment")
	}
}

// payload returns what follows the frame type, e.g. the body of #SD#body.
func payload(frame string) string {
	return frame[strings.IndexByte(frame[1:], '#')+2:]
}

func decimalComponent(set func(*fields.Calendar, int)) decodeFunc {
	return func(b *builder, value string, _ bool) error {
		v, err := fields.ParseInt(value)
		if err != nil {
			return err
		}
		set(&b.calendar, v)
		return nil
	}
}

func decodeDegrees(b *builder, value string, _ bool) error {
	v, err := fields.ParseDecimal(value)
	b.degrees = v
	return err
}

func decodeMinutes(b *builder, value string, _ bool) error {
	v, err := fields.ParseDecimal(value)
	b.degrees = fields.DegreesMinutes(b.degrees, v)
	return err
}

func hemisphereLetter(set func(*builder, float64)) decodeFunc {
	return func(b *builder, value string, _ bool) error {
		sign, err := fields.HemisphereLetter(value)
		if err != nil {
			return err
		}
		set(b, sign*b.degrees)
		return nil
	}
}

func decodeSpeedKmh(b *builder, value string, present bool) error {
	v, err := fields.OptionalFloat(value, present, 0)
	b.position.Speed = v * constants.KnotsPerKmh
	return err
}

func decodeCourse(b *builder, value string, present bool) error {
	v, err := fields.OptionalFloat(value, present, 0)
	b.position.Course = v
	return err
}

func decodeSatellites(b *builder, value string, present bool) error {
	if !present {
		b.position.Valid = false
		return nil
	}
	n, err := fields.ParseInt(value)
	if err != nil {
		return err
	}
	b.position.Valid = n >= constants.MinValidSatellites
	b.attrs.PutString("satellites", value)
	return nil
}

func decodeADC(b *builder, value string, present bool) error {
	if !present {
		return nil
	}
	for i, v := range fields.Split(value, ",") {
		b.attrs.PutString("adc"+strconv.Itoa(i+1), v)
	}
	return nil
}

func decodeParams(b *builder, value string, present bool) error {
	if !present {
		return nil
	}
	for _, param := range fields.Split(value, ",") {
		m := paramPattern.FindStringSubmatch(param)
		if m == nil {
			continue
		}
		if name := strings.ToLower(m[1]); name != attributes.KeyProtocol {
			b.attrs.PutString(name, m[2])
		}
	}
	return nil
}
