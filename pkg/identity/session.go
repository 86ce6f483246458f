package identity

// SessionState is the device identity bound to one connection.
type SessionState interface {
	// DeviceID returns the bound device and whether the connection is identified.
	DeviceID() (string, bool)
	// Bind marks the connection as identified with deviceID.
	Bind(deviceID string)
}

// Session holds the identity of a single connection. It starts unidentified
// and, once bound, never returns to that state. A Session must not be shared
// between connections.
type Session struct {
	deviceID   string
	identified bool
}

// NewSession creates an unidentified session.
func NewSession() *Session {
	return &Session{}
}

// DeviceID returns the bound device ID.
func (s *Session) DeviceID() (string, bool) {
	return s.deviceID, s.identified
}

// Bind sets the device ID.
func (s *Session) Bind(deviceID string) {
	s.deviceID = deviceID
	s.identified = true
}
