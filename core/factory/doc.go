// Package factory builds pluggable modules from configuration. A module is a
// type name plus a raw settings map; registered factories decode the map with
// Decode (json tags, weakly typed) and return the implementation.
//
// robofleet uses it for the metrics.sinks block:
//
//	metrics:
//	  sinks:
//	    - type: prometheus
//	    - type: influx
//	      conf: {url: "http://influx:8086", org: fleet, bucket: robots}
package factory
