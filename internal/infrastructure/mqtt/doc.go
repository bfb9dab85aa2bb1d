// Package mqtt provides MQTT connectivity for the home simulator.
//
// The simulator mirrors device state onto the broker and accepts
// commands from it:
//
//	homesim/state/{type}/{deviceId}   retained device status
//	homesim/command                   inbound commands (same JSON as the websocket)
//	homesim/response/{requestId}      replies to commands carrying a requestId
//	homesim/system/status             online/offline, with LWT
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.PublishRetained(client.Topics().DeviceState("Fan", id), payload)
package mqtt
