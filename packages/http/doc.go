// Package http provides the request/response protocol used by hitclient.
//
// It wraps a go-resty session with a small set of abstractions:
//   - Requester, MultipartRequester and CodableRequester describe outbound calls
//   - Response and ResponseFactory adapt raw transport responses into caller types
//   - Client and MultipartClient dispatch requests and return single-shot Calls
//   - Reachability gates every dispatch so offline calls fail without touching the network
//   - Multipart uploads report progress through a ProgressHandler
package http
