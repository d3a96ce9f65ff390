package transport

import (
	stdjson "encoding/json"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// krmx message types
// krmx 消息类型
const (
	MessageLink     = "krmx/link"
	MessageAccepted = "krmx/accepted"
	MessageRejected = "krmx/rejected"
	MessageUnlinked = "krmx/unlinked"
	MessageUnlink   = "krmx/unlink"
)

// Message krmx wire envelope
// Message krmx 传输信封
type Message struct {
	Type    string             `json:"type"`
	Payload stdjson.RawMessage `json:"payload,omitempty"`
}

// LinkPayload payload of krmx/link
// LinkPayload krmx/link 的载荷
type LinkPayload struct {
	Username string `json:"username"`
}

// RejectedPayload payload of krmx/rejected
// RejectedPayload krmx/rejected 的载荷
type RejectedPayload struct {
	Reason string `json:"reason"`
}

// EncodeMessage builds a wire message with an optional payload
// EncodeMessage 编码消息，payload 可为空
func EncodeMessage(typ string, payload any) ([]byte, error) {
	msg := Message{Type: typ}
	if payload != nil {
		raw, err := sonic.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s payload", typ)
		}
		msg.Payload = raw
	}
	b, err := sonic.Marshal(&msg)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", typ)
	}
	return b, nil
}

// DecodeMessage parses a wire message
// DecodeMessage 解析消息
func DecodeMessage(b []byte) (*Message, error) {
	var msg Message
	if err := sonic.Unmarshal(b, &msg); err != nil {
		return nil, errors.Wrap(err, "decode message")
	}
	if msg.Type == "" {
		return nil, errors.New("decode message: missing type")
	}
	return &msg, nil
}

// DecodePayload parses the payload into v
// DecodePayload 将载荷解析到 v
func (m *Message) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	return errors.Wrapf(sonic.Unmarshal(m.Payload, v), "decode %s payload", m.Type)
}
