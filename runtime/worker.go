// SPDX-License-Identifier: GPL-3.0-or-later

// Package runtime composes [sock.Socket] into the Server/Worker/Client
// roles: a Server accepts connections and spawns
// Worker instances on a bounded [*executor.Executor], a Worker inherits
// the Server's interrupt pair, and a Client hides the listen/accept
// surface by convention.
//
// [Server] is parameterized over a [Worker] implementation supplied
// by the HTTP and SMTP protocol layers.
package runtime

import (
	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/sock"
)

// Worker defines per-connection protocol behavior. A Worker is
// constructed only by a [Server]'s [WorkerFactory] from an accepted
// base Socket and the peer's resolved address; on return from OnWork,
// the Worker is removed from the Server's live set and its Socket is
// left for OnWork to have already closed (or, if OnWork panics, aborted
// by the Server).
type Worker interface {
	OnWork(conn *sock.Socket, peer resolve.AddressInfo) error
}

// WorkerFactory constructs a [Worker] from an accepted Socket, injected
// by the embedder to customize protocol behavior.
type WorkerFactory[W Worker] func(conn *sock.Socket, peer resolve.AddressInfo) W
