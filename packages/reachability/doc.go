// Package reachability reports whether the network is usable.
//
// A Monitor probes connectivity through a Prober, classifies the result as
// ethernet/WiFi or cellular, and notifies a single registered Listener on
// every transition. Monitors are plain values: callers construct one and
// pass it to the HTTP clients that need it.
package reachability
