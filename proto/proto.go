// Package proto is the JSON framing spoken with the call client sidecar.
//
// A frame is a request, the response to a request or an event. Payloads stay
// raw until a handler decodes them into its own type.
package proto

import gonanoid "github.com/matoous/go-nanoid/v2"

// Version is written on every outgoing frame.
const Version = "1"

type Kind string

const (
	KindRequest  Kind = "request"
	KindResponse Kind = "response"
	KindEvent    Kind = "event"
)

type Frame interface {
	Kind() Kind
}

func ID() string {
	i, _ := gonanoid.New()
	return i
}
