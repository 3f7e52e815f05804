package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Client talks to a running scrawld instance over the session bus.
// It is used by the CLI for commands that need the live daemon
// (pause, status, adding annotations to the overlay).
type Client struct {
	conn   *dbus.Conn
	obj    dbus.BusObject
	logger *slog.Logger
}

// NewClient connects to the session bus and returns a client for the
// overlay daemon. Returns an error if the bus is unreachable; whether
// the daemon itself is running is only discovered on the first call.
func NewClient(logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	return &Client{
		conn:   conn,
		obj:    conn.Object(DBusBusName, DBusPath),
		logger: logger,
	}, nil
}

// Ping checks whether the overlay daemon owns its bus name.
func (c *Client) Ping() bool {
	var owner string
	err := c.conn.BusObject().Call(
		"org.freedesktop.DBus.GetNameOwner", 0, DBusBusName,
	).Store(&owner)
	return err == nil && owner != ""
}

// Annotate asks the daemon to create an annotation at the given position.
// Returns the assigned annotation ID.
func (c *Client) Annotate(label, note string, x, y float64, hints map[string]dbus.Variant) (string, error) {
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	var id string
	err := c.obj.Call(DBusInterface+".Annotate", 0, label, note, x, y, hints).Store(&id)
	if err != nil {
		return "", fmt.Errorf("annotate call failed: %w", err)
	}

	c.logger.Debug("annotation created via D-Bus", "id", id, "label", label)
	return id, nil
}

// RemoveAnnotation asks the daemon to remove a marker from the overlay.
func (c *Client) RemoveAnnotation(id string) error {
	err := c.obj.Call(DBusInterface+".RemoveAnnotation", 0, id).Err
	if err != nil {
		return fmt.Errorf("remove call failed: %w", err)
	}
	return nil
}

// SetPaused pauses or resumes capture on the daemon.
func (c *Client) SetPaused(paused bool) error {
	err := c.obj.Call(DBusInterface+".SetPaused", 0, paused).Err
	if err != nil {
		return fmt.Errorf("pause call failed: %w", err)
	}
	return nil
}

// GetStatus fetches the daemon status map.
func (c *Client) GetStatus() (map[string]dbus.Variant, error) {
	var status map[string]dbus.Variant
	err := c.obj.Call(DBusInterface+".GetStatus", 0).Store(&status)
	if err != nil {
		return nil, fmt.Errorf("status call failed: %w", err)
	}
	return status, nil
}

// GetServerInformation fetches the daemon name, vendor, version and
// protocol version.
func (c *Client) GetServerInformation() (ServerInfo, error) {
	var info ServerInfo
	err := c.obj.Call(DBusInterface+".GetServerInformation", 0).Store(
		&info.Name, &info.Vendor, &info.Version, &info.ProtoVersion,
	)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("server information call failed: %w", err)
	}
	return info, nil
}

// Close releases the client. The shared session bus connection stays open.
func (c *Client) Close() error {
	return nil
}
