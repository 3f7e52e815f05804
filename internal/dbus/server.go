// Package dbus implements the org.scrawl.Overlay1 D-Bus interface.
package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// DBusInterface is the overlay control interface name.
	DBusInterface = "org.scrawl.Overlay1"
	// DBusPath is the overlay object path.
	DBusPath = "/org/scrawl/Overlay1"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.scrawl.Overlay"
)

// AnnotateHandler is called when an Annotate request is received.
// It returns the assigned annotation ID.
type AnnotateHandler func(req *AnnotateRequest) (string, error)

// RemoveHandler is called when RemoveAnnotation is requested.
// It returns true if the annotation existed.
type RemoveHandler func(id string) bool

// PauseHandler is called when SetPaused is requested.
type PauseHandler func(paused bool)

// StatusFunc provides the daemon status returned by GetStatus.
type StatusFunc func() map[string]dbus.Variant

// OverlayServer implements the org.scrawl.Overlay1 D-Bus interface.
type OverlayServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	// Handlers
	annotateHandler AnnotateHandler
	removeHandler   RemoveHandler
	pauseHandler    PauseHandler
	statusFunc      StatusFunc

	// Tracking annotations currently shown on the overlay
	mu         sync.RWMutex
	activeIDs  map[string]bool
	serverInfo ServerInfo
	running    bool
	stopCh     chan struct{}
}

// NewOverlayServer creates a new OverlayServer.
func NewOverlayServer(logger *slog.Logger) *OverlayServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverlayServer{
		logger:     logger,
		activeIDs:  make(map[string]bool),
		serverInfo: DefaultServerInfo(),
		stopCh:     make(chan struct{}),
	}
}

// SetAnnotateHandler sets the handler called when an annotation is requested.
func (s *OverlayServer) SetAnnotateHandler(handler AnnotateHandler) {
	s.annotateHandler = handler
}

// SetRemoveHandler sets the handler called when RemoveAnnotation is requested.
func (s *OverlayServer) SetRemoveHandler(handler RemoveHandler) {
	s.removeHandler = handler
}

// SetPauseHandler sets the handler called when SetPaused is requested.
func (s *OverlayServer) SetPauseHandler(handler PauseHandler) {
	s.pauseHandler = handler
}

// SetStatusFunc sets the provider for GetStatus responses.
func (s *OverlayServer) SetStatusFunc(fn StatusFunc) {
	s.statusFunc = fn
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *OverlayServer) SetServerInfo(info ServerInfo) {
	s.serverInfo = info
}

// Start connects to the session bus and exports the overlay service.
func (s *OverlayServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	// Export the overlay server object
	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	// Export introspection data
	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: overlayMethods(),
				Signals: overlaySignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	// Request the bus name
	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("D-Bus overlay server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name and closes the connection.
func (s *OverlayServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	close(s.stopCh)
	s.running = false

	if s.conn != nil {
		_, err := s.conn.ReleaseName(DBusBusName)
		if err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus overlay server stopped")
	return nil
}

// GetCapabilities returns the list of capabilities supported by this server.
// D-Bus method: GetCapabilities() -> as
func (s *OverlayServer) GetCapabilities() ([]string, *dbus.Error) {
	s.logger.Debug("GetCapabilities called")
	return ServerCapabilities, nil
}

// GetServerInformation returns information about the overlay daemon.
// D-Bus method: GetServerInformation() -> (ssss)
func (s *OverlayServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	s.logger.Debug("GetServerInformation called")
	return s.serverInfo.Name, s.serverInfo.Vendor, s.serverInfo.Version, s.serverInfo.ProtoVersion, nil
}

// Annotate handles incoming annotation requests.
// D-Bus method: Annotate(ssdda{sv}) -> s
func (s *OverlayServer) Annotate(
	label string,
	note string,
	x float64,
	y float64,
	hints map[string]dbus.Variant,
) (string, *dbus.Error) {
	s.logger.Debug("Annotate called",
		"label", label,
		"x", x,
		"y", y,
	)

	if s.annotateHandler == nil {
		return "", dbus.MakeFailedError(fmt.Errorf("no annotate handler registered"))
	}

	req := &AnnotateRequest{
		Label: label,
		Note:  note,
		X:     x,
		Y:     y,
		Hints: hints,
	}

	id, err := s.annotateHandler(req)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}

	s.mu.Lock()
	s.activeIDs[id] = true
	s.mu.Unlock()

	return id, nil
}

// RemoveAnnotation removes an annotation marker by ID.
// D-Bus method: RemoveAnnotation(s) -> nothing
func (s *OverlayServer) RemoveAnnotation(id string) *dbus.Error {
	s.logger.Debug("RemoveAnnotation called", "id", id)

	s.mu.Lock()
	_, exists := s.activeIDs[id]
	if exists {
		delete(s.activeIDs, id)
	}
	s.mu.Unlock()

	if exists && s.removeHandler != nil {
		s.removeHandler(id)
	}

	if exists {
		if err := s.EmitAnnotationRemoved(id, RemoveReasonRemoved); err != nil {
			s.logger.Warn("failed to emit AnnotationRemoved signal", "id", id, "error", err)
		}
	}

	return nil
}

// SetPaused pauses or resumes annotation capture.
// D-Bus method: SetPaused(b) -> nothing
func (s *OverlayServer) SetPaused(paused bool) *dbus.Error {
	s.logger.Debug("SetPaused called", "paused", paused)

	if s.pauseHandler != nil {
		s.pauseHandler(paused)
	}

	if err := s.EmitCapturePausedChanged(paused); err != nil {
		s.logger.Warn("failed to emit CapturePausedChanged signal", "error", err)
	}

	return nil
}

// GetStatus returns the daemon status as a variant map.
// D-Bus method: GetStatus() -> a{sv}
func (s *OverlayServer) GetStatus() (map[string]dbus.Variant, *dbus.Error) {
	s.logger.Debug("GetStatus called")

	if s.statusFunc != nil {
		return s.statusFunc(), nil
	}

	s.mu.RLock()
	active := len(s.activeIDs)
	s.mu.RUnlock()

	return map[string]dbus.Variant{
		"active_annotations": dbus.MakeVariant(uint32(active)),
		"version":            dbus.MakeVariant(s.serverInfo.Version),
	}, nil
}

// MarkRemoved marks an annotation as removed from the overlay (removes from
// active tracking). This should be called when a marker is removed by user
// action inside the daemon rather than over D-Bus.
func (s *OverlayServer) MarkRemoved(id string) {
	s.mu.Lock()
	delete(s.activeIDs, id)
	s.mu.Unlock()
}

// TrackActive registers an annotation as shown on the overlay without going
// through D-Bus. Used for annotations created by mouse capture.
func (s *OverlayServer) TrackActive(id string) {
	s.mu.Lock()
	s.activeIDs[id] = true
	s.mu.Unlock()
}

// IsActive returns true if the annotation ID is currently on the overlay.
func (s *OverlayServer) IsActive(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeIDs[id]
}

// overlayMethods returns the D-Bus method introspection data.
func overlayMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "proto_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Annotate",
			Args: []introspect.Arg{
				{Name: "label", Type: "s", Direction: "in"},
				{Name: "note", Type: "s", Direction: "in"},
				{Name: "x", Type: "d", Direction: "in"},
				{Name: "y", Type: "d", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "id", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "RemoveAnnotation",
			Args: []introspect.Arg{
				{Name: "id", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "SetPaused",
			Args: []introspect.Arg{
				{Name: "paused", Type: "b", Direction: "in"},
			},
		},
		{
			Name: "GetStatus",
			Args: []introspect.Arg{
				{Name: "status", Type: "a{sv}", Direction: "out"},
			},
		},
	}
}

// overlaySignals returns the D-Bus signal introspection data.
func overlaySignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "AnnotationAdded",
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
				{Name: "label", Type: "s"},
				{Name: "x", Type: "d"},
				{Name: "y", Type: "d"},
			},
		},
		{
			Name: "AnnotationRemoved",
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "CapturePausedChanged",
			Args: []introspect.Arg{
				{Name: "paused", Type: "b"},
			},
		},
	}
}
