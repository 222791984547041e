// Package dronelink provides an embeddable session runtime for a small
// quadcopter controlled over UDP.
//
// A session talks to the vehicle over two sockets. The command socket carries
// binary command frames (starting with 0xCC) and short text frames in both
// directions; incoming binary frames are decoded, queued and handed to the
// event dispatcher, which turns recognized commands into telemetry events for
// subscribers. The video socket is drained and otherwise ignored.
//
// # Basic Usage
//
//	s, err := dronelink.New(dronelink.Config{Host: "192.168.10.1"})
//	if err != nil {
//	    return err
//	}
//
//	s.SubscribeFunc(func(ev telemetry.Event) {
//	    fmt.Println(ev.Kind(), ev)
//	})
//
//	if err := s.Start(ctx); err != nil {
//	    return err
//	}
//	defer s.Stop()
//
//	if err := s.TakeOff(); err != nil {
//	    return err
//	}
//
// # Sequence Numbers
//
// Every command sent with [Session.Send] carries a 16-bit sequence number.
// Sends are serialized: encoding, the socket write and the increment happen
// under one lock, so numbers appear on the wire in order without gaps or
// duplicates. A failed write does not consume a number. The counter wraps
// at 65535 and is kept across Stop and Start.
//
// # Lifecycle States
//
//   - StateStopped: created or stopped
//   - StateConnecting: Start is opening sockets and sending the connection request
//   - StateActive: telemetry flows and commands are accepted
//   - StateStopping: Stop is in progress
//   - StateFaulted: a socket failed; see [Session.Err] and call Stop
//
// There is no reconnection. A faulted session stays faulted until Stop.
//
// # Plugins
//
// Plugins are registered with [WithPlugin], initialized in order by Start and
// shut down in reverse order by Stop. See plugins/eventlog and
// plugins/configwatcher.
//
// # Replay
//
// [Session.ReplayCapture] feeds a pcap capture of the command port through
// the same decode and dispatch path, which is useful for testing readers
// against recorded flights.
package dronelink
