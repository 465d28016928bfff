// Package providers defines the transport contract the core engines talk to
// and, in tagged, one concrete implementation of it.
package providers

import "context"

// Tag identifies one RPC operation on the wire. Tag values are part of the
// wire contract and must never be renumbered.
type Tag uint16

const (
	TagPush                   Tag = 1001
	TagWrite                  Tag = 1002
	TagWriteOffset            Tag = 1003
	TagPushFinish             Tag = 1004
	TagLock                   Tag = 1005
	TagCheckFinish            Tag = 1006
	TagShowDirectoryContents  Tag = 1007
	TagGetFileInfo            Tag = 1008
	TagCreatePull             Tag = 1009
	TagRead                   Tag = 1010
	TagAsyncRead              Tag = 1011
	TagFinishReadKey          Tag = 1012
	TagWriteFileByKey         Tag = 2001
)

// Handler processes one inbound (server-initiated) call arriving on tag.
// req is the tag's raw wire payload; the handler is responsible for
// unmarshaling it into its expected shape. Handlers never reply: every
// inbound tag the core uses (2001) is defined as no-reply.
type Handler func(req []byte)

// Transport is the opaque bidirectional tagged RPC facility the core engines
// treat as an external collaborator: framing, multiplexing, session
// handling, and TLS negotiation are its concern, not the core's.
//
// The core only ever needs three operations against it: a request/response
// call, a fire-and-forget call, and a way to receive server-initiated calls.
type Transport interface {
	// Call sends req on tag and decodes the response into resp, blocking
	// until a reply arrives or ctx is done. resp must be a pointer, or nil
	// if the tag has no meaningful reply payload beyond success.
	Call(ctx context.Context, tag Tag, req, resp interface{}) error

	// CallNoReply sends req on tag without waiting for any acknowledgement.
	// The transport still guarantees per-connection wire ordering relative
	// to other calls issued on the same Transport instance.
	CallNoReply(ctx context.Context, tag Tag, req interface{}) error

	// RegisterHandler installs the handler the transport invokes whenever an
	// inbound call arrives on tag. Replacing a handler for a tag already
	// registered is undefined; callers register each tag at most once.
	RegisterHandler(tag Tag, handler Handler)

	// Close releases the underlying connection.
	Close() error
}
