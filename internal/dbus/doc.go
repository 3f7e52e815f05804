// Package dbus implements the org.scrawl.Overlay1 D-Bus interface.
// It provides a server that accepts annotation and control requests from
// external tools (scripts, the scrawl CLI) and a client for talking to a
// running scrawld instance from other processes.
package dbus
