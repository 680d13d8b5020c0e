// Package jdwp implements a client for the Java Debug Wire Protocol.
//
// A Session is opened on an already connected byte-duplex stream (for
// example a net.Conn dialed to a JVM started with
// -agentlib:jdwp=transport=dt_socket). Opening the session performs
// the 14-byte ASCII handshake and negotiates the widths of the
// variably sized identifier types, after which commands can be issued
// concurrently: replies are matched to outstanding requests by packet
// id.
//
// The package covers class and method enumeration and event request
// management (breakpoints, single-step, class-prepare, ...). It does
// not decode event packets sent by the VM, walk stack frames or read
// locals; a transport fault terminates the session and fails all
// outstanding commands.
package jdwp
