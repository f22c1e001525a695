// Package cmd implements the hitclient CLI commands using Cobra.
//
// Available commands:
//   - request: Send a request to the configured host
//   - upload: Upload files as multipart/form-data with progress
//   - reach: Report network reachability, optionally watching for changes
//   - info: Show the device and app details attached to requests
//   - init: Create a hitclient.yaml config file
//   - version: Show hitclient version information
//
// Every command resolves configuration the same way: config file, then
// HITCLIENT_* environment variables, then flags.
package cmd
