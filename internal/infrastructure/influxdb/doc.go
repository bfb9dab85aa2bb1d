// Package influxdb records device state history in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, a health check and a device change writer. Every committed
// change becomes one point in the device_metrics measurement, tagged with
// device_id, device_type, room and source.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceChange(change)
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Async write failures are delivered to the callback set
// with SetOnError.
package influxdb
