// Package statefeed fans committed device changes out to consumers.
//
//	Registry ──Notify──▶ [ queue ] ──worker──▶ hub broadcast
//	 (under lock,        [ queue ] ──worker──▶ MQTT retained state
//	  never blocks)      [ queue ] ──worker──▶ InfluxDB points
//	                     [ queue ] ──worker──▶ journal
//	                     [ queue ] ──worker──▶ metrics
//
// Each sink has its own bounded queue and worker. A full queue drops the
// change for that sink only and counts it.
package statefeed
