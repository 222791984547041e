// Package ports defines the interfaces that connect the session runtime to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [DatagramConn]: one connected UDP socket
//   - [Dialer]: opens a DatagramConn to the vehicle
//   - [FrameHandler]: consumes one received datagram
//   - [FrameSource]: yields recorded datagrams for offline replay
//
// The runtime (internal/app) depends only on these interfaces. Adapters in
// internal/adapters provide real sockets and capture replay; tests substitute
// loopback sockets or in-memory fakes.
package ports
