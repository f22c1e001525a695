// Package deviceinfo describes the running device and application: a stable
// identifier, the address of a network interface, host and OS details, and the
// version strings and user agent sent with API requests.
package deviceinfo
