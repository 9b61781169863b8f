package contracts

// CreatedAtLayout is the payload timestamp format: ISO-8601 with microsecond
// precision, zero-padded. Existing consumers parse exactly this shape.
const CreatedAtLayout = "2006-01-02T15:04:05.000000"

// Envelope is the wire-ready form of a message: the flat payload mapping plus the
// transport attributes. Both the Timestamp attribute and the created_at payload
// field derive from the message creation time, never from the clock at publish
// time. Envelopes are transient; one is built per publish and never reused.
type Envelope struct {
	Payload map[string]interface{}

	// AppID identifies the producing application.
	AppID string

	// Timestamp is the message creation time in epoch seconds.
	Timestamp int64

	// Type is the message name.
	Type string

	// Headers carries transport headers such as the delay header. Nil when the
	// publish needs none.
	Headers map[string]interface{}
}
