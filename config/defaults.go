package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultPort is the greeting server's well-known port.
	DefaultPort = 4242

	// DefaultPrompt is the first line sent to a newly connected peer.
	DefaultPrompt = "who is it?"

	// DefaultIPService answers a plain GET with the caller's public
	// address as text.
	DefaultIPService = "https://checkip.amazonaws.com"

	// DefaultIPTimeout bounds each public address lookup request.
	DefaultIPTimeout = 3 * time.Second

	// DefaultConnTimeout is the client's TCP connect timeout.
	DefaultConnTimeout = 10 * time.Second
)
