/*
Package session manages the lifecycle of live form instances behind
generated session IDs.

It is the registry the transport adapters (HTTP, MCP) share: forms are
created once, addressed by ID, and serialized per session when a caller
needs multi-operation atomicity.
*/
package session
