// Package tunnel maintains one outbound TCP connection to a local relay
// endpoint and delivers the length-prefixed frames it receives.
//
// A Client moves through the states Idle, Connecting, Ready, Failed and
// Cancelled. Every transition and every frame callback for a connection is
// made from that connection's own goroutine, so handlers observe them in
// order and never concurrently.
//
//	c := tunnel.NewClient(tunnel.DefaultConfig(), tunnel.WithHandler(h))
//	if err := c.Connect(ctx, 9999); err != nil {
//	    return err
//	}
//	<-c.Done()
//
// The client never reconnects on its own. Retry policy belongs to the caller.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package tunnel
