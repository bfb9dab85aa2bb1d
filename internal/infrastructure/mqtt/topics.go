package mqtt

import "fmt"

// DefaultTopicPrefix is used when Topics.Prefix is empty.
const DefaultTopicPrefix = "homesim"

// Topics builds the simulator's MQTT topic names under a common prefix.
//
//	topics := mqtt.Topics{Prefix: "homesim"}
//	topics.DeviceState("Light", "Light_3F2A")
//	// Returns: "homesim/state/Light/Light_3F2A"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// DeviceState returns the retained state topic for one device.
//
// Example: homesim/state/Fan/Fan_01AB
func (t Topics) DeviceState(kind, deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", t.prefix(), kind, deviceID)
}

// Command returns the topic clients publish commands on.
//
// Example: homesim/command
func (t Topics) Command() string {
	return t.prefix() + "/command"
}

// Response returns the reply topic for a correlated command.
//
// Example: homesim/response/req-42
func (t Topics) Response(requestID string) string {
	return fmt.Sprintf("%s/response/%s", t.prefix(), requestID)
}

// SystemStatus returns the online/offline status topic.
//
// Example: homesim/system/status
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// AllDeviceStates matches every device state topic.
//
// Pattern: homesim/state/+/+
func (t Topics) AllDeviceStates() string {
	return t.prefix() + "/state/+/+"
}
