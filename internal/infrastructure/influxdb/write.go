package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/homesim-core/internal/device"
)

// MeasurementDeviceMetrics is the measurement every device change is written to.
const MeasurementDeviceMetrics = "device_metrics"

// WriteDeviceChange records a committed device change as a single point.
//
// Changes with no numeric or boolean fields are skipped.
func (c *Client) WriteDeviceChange(change device.Change) {
	if !c.IsConnected() {
		return
	}
	point := DevicePoint(change)
	if point == nil {
		return
	}
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

// DevicePoint builds the device_metrics point for a change.
//
// Booleans are stored as 0/1 integers so they can be graphed next to
// numeric values. String fields (colour, source, cycle) are left out.
// Returns nil when nothing numeric remains.
func DevicePoint(change device.Change) *write.Point {
	fields := make(map[string]interface{}, len(change.Entry.Status))
	for _, f := range change.Entry.Status {
		switch v := f.Value.(type) {
		case bool:
			if v {
				fields[f.Key] = int64(1)
			} else {
				fields[f.Key] = int64(0)
			}
		case int:
			fields[f.Key] = int64(v)
		case int64:
			fields[f.Key] = v
		case float64:
			fields[f.Key] = v
		}
	}
	if len(fields) == 0 {
		return nil
	}

	at := change.At
	if at.IsZero() {
		at = time.Now()
	}

	return write.NewPoint(
		MeasurementDeviceMetrics,
		map[string]string{
			"device_id":   change.Entry.ID,
			"device_type": string(change.Entry.Kind),
			"room":        change.Entry.Room,
			"source":      change.Cause.Source,
		},
		fields,
		at,
	)
}
