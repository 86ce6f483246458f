// Package protocols turns raw tracker frames into positions, one decoder per
// vendor grammar.
package protocols

import (
	"io"

	"github.com/benmeehan/tracker-gateway/pkg/identity"
)

// Decoder decodes the frames of one vendor protocol.
//
// Decode is called once per frame, in arrival order, with the session owned by
// the connection the frame came from. Acknowledgments, if the protocol has any,
// are written to out; a nil out discards them.
type Decoder interface {
	Protocol() string
	Decode(session identity.SessionState, out io.Writer, frame string) Result
}
