package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/nerrad567/homesim-core/internal/device"
)

// RequestInitialState is the bare text frame a client sends to be
// re-sent the full snapshot.
const RequestInitialState = "requestInitialState"

// Command is a decoded, validated request to run one action on one device.
type Command struct {
	Device      device.Kind
	Action      Action
	DeviceIndex int
	Args        Args

	// RequestID is echoed on the response when present. MQTT clients
	// use it to correlate replies.
	RequestID string
}

// IsSnapshotRequest reports whether a frame asks for the initial state
// rather than carrying a command.
func IsSnapshotRequest(data []byte) bool {
	s := strings.TrimSpace(string(data))
	return s == RequestInitialState || s == `"`+RequestInitialState+`"`
}

// Decode parses and validates a wire command.
//
// The checks run in order: object shape and device/action as strings
// (ErrMalformedCommand), device kind (ErrUnknownDeviceType), action for
// that kind (ErrUnknownAction), then each declared parameter
// (ErrMissingParameter, ErrInvalidParameterType).
func Decode(data []byte) (Command, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	if raw == nil {
		return Command{}, fmt.Errorf("%w: expected an object", ErrMalformedCommand)
	}

	deviceName, ok := raw["device"].(string)
	if !ok || deviceName == "" {
		return Command{}, fmt.Errorf("%w: device must be a non-empty string", ErrMalformedCommand)
	}
	actionName, ok := raw["action"].(string)
	if !ok || actionName == "" {
		return Command{}, fmt.Errorf("%w: action must be a non-empty string", ErrMalformedCommand)
	}

	index, err := decodeIndex(raw["deviceIndex"])
	if err != nil {
		return Command{}, err
	}

	params := map[string]any{}
	switch p := raw["parameters"].(type) {
	case nil:
	case map[string]any:
		params = p
	default:
		return Command{}, fmt.Errorf("%w: parameters must be an object", ErrMalformedCommand)
	}

	var requestID string
	if v, ok := raw["requestId"].(string); ok {
		requestID = v
	}

	kind, ok := device.ParseKind(deviceName)
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownDeviceType, deviceName)
	}

	spec, ok := LookupAction(kind, actionName)
	if !ok {
		return Command{}, fmt.Errorf("%w: %q for %s", ErrUnknownAction, actionName, kind)
	}

	args, err := bindParams(spec, params)
	if err != nil {
		return Command{}, err
	}

	return Command{
		Device:      kind,
		Action:      spec.Name,
		DeviceIndex: index,
		Args:        args,
		RequestID:   requestID,
	}, nil
}

func decodeIndex(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return 0, fmt.Errorf("%w: deviceIndex must be an integer", ErrMalformedCommand)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("%w: deviceIndex must be an integer", ErrMalformedCommand)
	}
}

// bindParams coerces the declared parameters. Parameters the action
// does not declare are ignored.
func bindParams(spec ActionSpec, params map[string]any) (Args, error) {
	args := make(Args, len(spec.Params))
	for _, p := range spec.Params {
		raw, present := params[p.Name]
		if !present || raw == nil {
			if p.Optional {
				continue
			}
			return nil, fmt.Errorf("%w: %s requires %q", ErrMissingParameter, spec.Name, p.Name)
		}
		v, err := coerce(p.Name, raw, p.Type)
		if err != nil {
			return nil, err
		}
		args[p.Name] = v
	}
	return args, nil
}

