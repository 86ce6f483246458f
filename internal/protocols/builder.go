package protocols

import (
	"fmt"

	"github.com/benmeehan/tracker-gateway/internal/models"
	"github.com/benmeehan/tracker-gateway/pkg/attributes"
	"github.com/benmeehan/tracker-gateway/pkg/fields"
	"github.com/benmeehan/tracker-gateway/pkg/identity"
)

// builder accumulates one position while the field decoders run.
type builder struct {
	session  identity.SessionState
	resolver identity.Resolver

	position *models.Position
	attrs    *attributes.Set
	calendar fields.Calendar

	// pending coordinate parts, consumed by the field that completes them
	sign    float64
	degrees float64
}

// newBuilder starts an empty position. resolver may be nil for protocols that
// identify the connection before any sentence arrives; identify is then unusable.
func newBuilder(protocol string, session identity.SessionState, resolver identity.Resolver) *builder {
	return &builder{
		session:  session,
		resolver: resolver,
		attrs:    attributes.New(protocol),
		sign:     1,
	}
}

// identify resolves externalID, binds the session and starts the position.
func (b *builder) identify(externalID string) error {
	if b.resolver == nil {
		return ErrUnknownDevice
	}
	deviceID, ok := b.resolver.Resolve(externalID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, externalID)
	}
	b.session.Bind(deviceID)
	b.start(deviceID)
	return nil
}

func (b *builder) start(deviceID string) {
	b.position = models.NewPosition(deviceID)
}

// finish attaches the time and the serialized sidecar.
func (b *builder) finish() *models.Position {
	b.position.Time = b.calendar.Time()
	b.position.ExtendedInfo = b.attrs.String()
	return b.position
}
