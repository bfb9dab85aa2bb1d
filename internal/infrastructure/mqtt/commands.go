package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/homesim-core/internal/protocol"
)

// originPrefix marks state changes made through MQTT.
const originPrefix = "mqtt:"

// Dispatcher runs a decoded command. dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(origin string, cmd protocol.Command) protocol.Response
}

// CommandTransport is the subset of Client the ingress needs.
type CommandTransport interface {
	Subscribe(topic string, qos byte, handler MessageHandler) error
	PublishTransient(topic string, payload []byte) error
	Topics() Topics
}

// CommandIngress accepts websocket-format commands on {prefix}/command
// and runs them through the same dispatcher as the control channel.
//
// A payload carrying "requestId" gets its response on
// {prefix}/response/{requestId}; without one the command is fire-and-forget.
type CommandIngress struct {
	transport  CommandTransport
	dispatcher Dispatcher
	qos        byte
	logger     Logger
}

// NewCommandIngress wires t to d. Nothing is subscribed until Start.
func NewCommandIngress(t CommandTransport, d Dispatcher, qos byte) *CommandIngress {
	return &CommandIngress{transport: t, dispatcher: d, qos: qos}
}

// SetLogger sets the logger for rejected commands.
func (i *CommandIngress) SetLogger(logger Logger) {
	i.logger = logger
}

// Start subscribes to the command topic.
func (i *CommandIngress) Start() error {
	topic := i.transport.Topics().Command()
	if err := i.transport.Subscribe(topic, i.qos, i.handle); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return nil
}

func (i *CommandIngress) handle(_ string, payload []byte) error {
	cmd, err := protocol.Decode(payload)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("rejected MQTT command", "error", err)
		}
		resp := protocol.Failure(strings.TrimPrefix(err.Error(), "protocol: "))
		resp.RequestID = peekRequestID(payload)
		return i.respond(resp)
	}

	origin := originPrefix + cmd.RequestID
	if cmd.RequestID == "" {
		origin = strings.TrimSuffix(originPrefix, ":")
	}
	return i.respond(i.dispatcher.Dispatch(origin, cmd))
}

func (i *CommandIngress) respond(resp protocol.Response) error {
	if resp.RequestID == "" {
		return nil
	}
	if !validRequestID(resp.RequestID) {
		return fmt.Errorf("%w: request id %q is not a valid topic level", ErrInvalidTopic, resp.RequestID)
	}
	payload, err := resp.Encode()
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	return i.transport.PublishTransient(i.transport.Topics().Response(resp.RequestID), payload)
}

// peekRequestID recovers requestId from a payload that failed validation.
func peekRequestID(payload []byte) string {
	var peek struct {
		RequestID string `json:"requestId"`
	}
	if json.Unmarshal(payload, &peek) != nil {
		return ""
	}
	return peek.RequestID
}

// validRequestID rejects IDs that would change the response topic shape.
func validRequestID(id string) bool {
	return !strings.ContainsAny(id, "/+#\x00")
}
