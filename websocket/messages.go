package websocket

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/kenaz/bvh"
	"github.com/aukilabs/kenaz/models"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	ErrTypeMsgDecode = "ws_msg_decode"
	ErrTypeMsgEncode = "ws_msg_encode"
)

// Message types.
const (
	MsgTypePing      = "ping"
	MsgTypeIntersect = "intersect"
	MsgTypeRegion    = "region"
	MsgTypeError     = "error"
)

// Request is a message sent by a client. The type defaults to intersect.
type Request struct {
	Type      string       `json:"type,omitempty"`
	RequestID uint32       `json:"request_id"`
	Origin    bvh.Vector3f `json:"origin"`
	Direction bvh.Vector3f `json:"direction"`
	Min       bvh.Vector3f `json:"min"`
	Max       bvh.Vector3f `json:"max"`
}

func (r Request) TypeString() string {
	if r.Type == "" {
		return MsgTypeIntersect
	}
	return r.Type
}

// Response is a message sent to a client.
type Response struct {
	Type      string            `json:"type"`
	RequestID uint32            `json:"request_id"`
	Hit       bool              `json:"hit"`
	NodeID    uint32            `json:"node_id,omitempty"`
	Box       *bvh.Box          `json:"box,omitempty"`
	Nodes     []models.NodeInfo `json:"nodes,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Receiver returns the next request received from a client and its size in
// bytes.
type Receiver func() (Request, int, error)

// Sender sends a response to a client and returns its size in bytes.
type Sender func(Response) (int, error)

// ResponseSender queues responses to be sent to a client.
type ResponseSender interface {
	Send(Response)
}

func newReceiver(conn *websocket.Conn) Receiver {
	return func() (Request, int, error) {
		var b []byte
		if err := websocket.Message.Receive(conn, &b); err != nil {
			return Request{}, 0, err
		}

		var req Request
		if err := json.Unmarshal(b, &req); err != nil {
			return Request{}, len(b), errors.New("decoding request failed").
				WithType(ErrTypeMsgDecode).
				Wrap(err)
		}
		return req, len(b), nil
	}
}

func newSender(conn *websocket.Conn) Sender {
	return func(res Response) (int, error) {
		b, err := json.Marshal(res)
		if err != nil {
			return 0, errors.New("encoding response failed").
				WithType(ErrTypeMsgEncode).
				WithTag("msg_type", res.Type).
				Wrap(err)
		}

		if err := websocket.Message.Send(conn, string(b)); err != nil {
			return 0, err
		}
		return len(b), nil
	}
}
