package room

import (
	"errors"

	"pokertable-server/pkg/table"
)

// inbound events
const (
	EventJoinTable      = "joinTable"
	EventLeaveTable     = "leaveTable"
	EventReconnectTable = "reconnectTable"
	EventStartHand      = "startHand"
	EventPlayerAction   = "playerAction"
)

// outbound keys
const (
	KeyStatus         = "status"
	KeyTableUpdated   = "tableUpdated"
	KeyActionRejected = "actionRejected"
	KeyHandStarted    = "handStarted"
	KeyTableClosed    = "tableClosed"
)

// ErrUnknownEvent is returned when a client sends an event the server does not handle
var ErrUnknownEvent = &table.UserError{Code: "UnknownEvent", Message: "unknown event"}

// ErrInvalidMessage is returned when a client sends something that is not a JSON event
var ErrInvalidMessage = &table.UserError{Code: "InvalidMessage", Message: "message could not be decoded"}

// PayloadIn is the format we expect from the JS client
type PayloadIn struct {
	Event       string `json:"event"`
	TableID     string `json:"tableId"`
	DisplayName string `json:"displayName"`
	Action      string `json:"action"`
	Amount      int    `json:"amount"`

	// Context will be passed back on any outgoing message
	Context string `json:"context"`
}

// Response is the envelope for every message sent to a client
type Response struct {
	Key     string      `json:"key"`
	Value   string      `json:"value"`
	Data    interface{} `json:"data"`
	Context string      `json:"context"`
}

// Rejection is the payload of an actionRejected response
type Rejection struct {
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// HandStarted is the payload of a handStarted response
type HandStarted struct {
	DealerID   string      `json:"dealerId"`
	Phase      table.Phase `json:"phase"`
	HandNumber int         `json:"handNumber"`
}

// TableClosed is the payload of a tableClosed response
type TableClosed struct {
	Reason string `json:"reason"`
}

// OK returns a generic success response
func OK(ctx ...string) *Response {
	res := &Response{
		Key:   KeyStatus,
		Value: "OK",
	}

	if len(ctx) == 1 {
		res.Context = ctx[0]
	}

	return res
}

// newRejection converts err into a response for the client
// Only a table.UserError is described to the client
func newRejection(ctx string, err error) *Response {
	rejection := &Rejection{
		Reason: "internal error",
		Code:   "Internal",
	}

	if ue, ok := table.IsUserError(err); ok {
		rejection.Reason = err.Error()
		rejection.Code = ue.Code
	}

	return &Response{
		Key:     KeyActionRejected,
		Value:   rejection.Code,
		Data:    rejection,
		Context: ctx,
	}
}

func newTableClosed(reason error) *Response {
	r := "internalError"
	switch {
	case errors.Is(reason, table.ErrIdleTimeout):
		r = "idleTimeout"
	case errors.Is(reason, table.ErrNoConnectedPlayers):
		r = "noConnectedPlayers"
	}

	return &Response{
		Key:   KeyTableClosed,
		Value: r,
		Data:  &TableClosed{Reason: r},
	}
}
