// Package main is the entry point for the scrawld annotation daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	godbus "github.com/godbus/dbus/v5"

	"github.com/scrawl-tools/scrawl/internal/audio"
	"github.com/scrawl-tools/scrawl/internal/config"
	"github.com/scrawl-tools/scrawl/internal/daemon"
	"github.com/scrawl-tools/scrawl/internal/dbus"
	"github.com/scrawl-tools/scrawl/internal/display"
	"github.com/scrawl-tools/scrawl/internal/model"
	"github.com/scrawl-tools/scrawl/internal/store"
	"github.com/scrawl-tools/scrawl/internal/theme"
)

// removedIDsCache tracks which scrawl IDs we already processed from an
// external store change so the same removal isn't handled twice.
var removedIDsCache = make(map[string]bool)

const (
	appID   = "org.scrawl.Scrawld"
	appName = "scrawld"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		println("scrawld version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	runDaemon(logger)
}

// runDaemon runs scrawld as the annotation overlay daemon.
func runDaemon(logger *slog.Logger) {
	logger.Info("starting scrawld", "version", version)

	// Load configuration
	cfg, err := config.LoadDaemonConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Create the libadwaita application
	app := adw.NewApplication(appID, 0)

	// Shared state between GTK main loop and signal handlers
	var (
		dbusServer       *dbus.OverlayServer
		displayManager   *display.Manager
		themeLoader      *theme.Loader
		audioManager     *audio.Manager
		historyStore     *store.Store
		annotState       *daemon.AnnotationStateManager
		storeWatcher     *daemon.StoreWatcher
		stateWatcher     *daemon.StateWatcher
		configWatcher    *daemon.ConfigWatcher
		internalNotifier *daemon.InternalNotifier
		sharedState      *store.SharedState
		running          atomic.Bool
	)

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	shutdown := func() {
		if audioManager != nil {
			audioManager.Stop()
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if stateWatcher != nil {
			stateWatcher.Stop()
		}
		if storeWatcher != nil {
			storeWatcher.Stop()
		}
		if displayManager != nil {
			displayManager.Stop()
		}
		if dbusServer != nil {
			_ = dbusServer.Stop()
		}
		if historyStore != nil {
			_ = historyStore.Close()
		}
	}

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()

		// Stop components in GTK main loop context
		glib.IdleAdd(func() {
			if running.Load() {
				shutdown()
				app.Quit()
			}
		})
	}()

	// Handle application activation
	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		// Initialize history store with persistence
		historyPath, err := store.HistoryPath()
		if err != nil {
			logger.Error("failed to get history path", "error", err)
			app.Quit()
			return
		}

		persistence, err := store.NewJSONLPersistence(historyPath)
		if err != nil {
			logger.Error("failed to create persistence", "error", err)
			app.Quit()
			return
		}

		historyStore = store.NewStore(persistence)
		if err := historyStore.Hydrate(); err != nil {
			logger.Warn("failed to hydrate store", "error", err)
		}
		logger.Info("history store initialized", "path", historyPath, "count", historyStore.Count())

		// Load shared state (capture pause, etc.)
		sharedState, err = store.LoadSharedState()
		if err != nil {
			logger.Warn("failed to load shared state", "error", err)
			sharedState = store.DefaultSharedState()
		}
		if cfg.Overlay.Paused && !sharedState.CapturePaused {
			sharedState.SetPaused(true, store.PauseTriggerSystem, "paused at startup", appName)
			_ = store.SaveSharedState(sharedState)
		}
		logger.Info("shared state loaded", "capture_paused", sharedState.CapturePaused)

		// Tracks each annotation's display lifecycle (visible, editing, ...)
		annotState = daemon.NewAnnotationStateManager()

		// Initialize theme loading with hot reload
		themeLoader = theme.NewLoader(logger)
		if err := themeLoader.LoadTheme(cfg.Theme.Name); err != nil {
			logger.Warn("failed to load theme, using default", "error", err)
		}
		themeLoader.Apply(nil)
		themeLoader.StartHotReload(ctx)

		// Initialize audio manager
		audioManager = audio.NewManager(cfg, logger)
		if err := audioManager.Start(ctx); err != nil {
			logger.Warn("failed to start audio manager", "error", err)
		}

		// Initialize display manager
		displayManager = display.NewManager(&app.Application, cfg, logger)
		if err := displayManager.Start(); err != nil {
			logger.Error("failed to start display manager", "error", err)
			app.Quit()
			return
		}

		// Initialize D-Bus server
		dbusServer = dbus.NewOverlayServer(logger)
		dbusServer.SetServerInfo(dbus.ServerInfo{
			Name:         appName,
			Vendor:       "scrawl",
			Version:      version,
			ProtoVersion: "1",
		})

		// handleAnnotate processes a capture request from any origin:
		// D-Bus clients and the internal notifier both land here.
		handleAnnotate := func(req *dbus.AnnotateRequest) (string, error) {
			a, err := model.NewAnnotation(req.Source())
			if err != nil {
				return "", err
			}

			a.Label = req.Label
			a.Note = req.Note
			a.X = req.X
			a.Y = req.Y
			a.Monitor = req.Monitor()
			a.Timestamp = time.Now().Unix()
			a.SetPriority(req.Priority())
			if color := req.Color(); color != "" {
				a.Color = color
			}
			if a.Label == "" {
				a.Label = cfg.Behavior.DefaultLabel
			}
			a.EnsureContentHash()

			transient := req.Transient()
			paused := sharedState != nil && sharedState.CapturePaused

			// While paused, external captures are recorded but stay off
			// screen. Internal transient notices still show.
			if paused && !transient {
				if err := historyStore.Add(*a); err != nil {
					logger.Error("failed to persist annotation", "scrawl_id", a.ScrawlID, "error", err)
				}
				logger.Debug("capture recorded while paused", "scrawl_id", a.ScrawlID)
				return a.ScrawlID, nil
			}

			// Drop duplicate captures when configured
			if cfg.Behavior.DedupeCaptures && !transient {
				for _, existing := range historyStore.All() {
					if existing.ContentHash == a.ContentHash && !existing.IsArchived() {
						logger.Debug("dropped duplicate capture",
							"scrawl_id", a.ScrawlID, "duplicate_of", existing.ScrawlID)
						return existing.ScrawlID, nil
					}
				}
			}

			if !transient {
				if err := historyStore.Add(*a); err != nil {
					logger.Error("failed to persist annotation", "scrawl_id", a.ScrawlID, "error", err)
				}
				sharedState.UpdateLastAnnotation()
				_ = store.SaveSharedState(sharedState)
			}

			annotState.Register(a.ScrawlID, a.ScrawlSource, transient)

			// Capture feedback sound
			if !req.SuppressSound() {
				go func(priority int, soundFile string) {
					if soundFile != "" {
						if err := audioManager.PlayFile(soundFile); err != nil {
							logger.Debug("failed to play sound file", "file", soundFile, "error", err)
						}
					} else {
						if err := audioManager.PlayForPriority(priority); err != nil {
							logger.Debug("failed to play capture sound", "priority", priority, "error", err)
						}
					}
				}(a.Priority, req.SoundFile())
			}

			openEditor := req.OpenEditor()

			// Show the marker on the GTK main loop
			glib.IdleAdd(func() {
				if err := displayManager.ShowMarker(a); err != nil {
					logger.Error("failed to show marker", "scrawl_id", a.ScrawlID, "error", err)
					return
				}
				if openEditor {
					if err := displayManager.OpenEditor(a.ScrawlID); err != nil {
						logger.Warn("failed to open editor", "scrawl_id", a.ScrawlID, "error", err)
					} else {
						annotState.SetStatus(a.ScrawlID, daemon.AnnotationStatusEditing)
					}
				}
			})

			if err := dbusServer.EmitAnnotationAdded(a.ScrawlID, a.Label, a.X, a.Y); err != nil {
				logger.Debug("failed to emit AnnotationAdded", "error", err)
			}

			return a.ScrawlID, nil
		}

		dbusServer.SetAnnotateHandler(handleAnnotate)

		dbusServer.SetRemoveHandler(func(id string) bool {
			existed := annotState.Get(id) != nil
			removedIDsCache[id] = true
			annotState.Remove(id)
			glib.IdleAdd(func() {
				displayManager.RemoveMarker(id, dbus.RemoveReasonRemoved)
			})
			return existed
		})

		dbusServer.SetPauseHandler(func(paused bool) {
			if sharedState.CapturePaused == paused {
				return
			}
			sharedState.SetPaused(paused, store.PauseTriggerUser, "set over dbus", "dbus")
			if err := store.SaveSharedState(sharedState); err != nil {
				logger.Warn("failed to save shared state", "error", err)
			}
			internalNotifier.NotifyPauseChanged(paused, "requested over D-Bus")
		})

		dbusServer.SetStatusFunc(func() map[string]godbus.Variant {
			return map[string]godbus.Variant{
				"active_annotations": godbus.MakeVariant(uint32(displayManager.MarkerCount())),
				"open_editors":       godbus.MakeVariant(uint32(displayManager.OpenEditorCount())),
				"capture_paused":     godbus.MakeVariant(sharedState.CapturePaused),
				"version":            godbus.MakeVariant(version),
			}
		})

		// Connect display manager callbacks to the store and D-Bus
		displayManager.SetSaveCallback(func(scrawlID, label, note string) {
			a := historyStore.GetByID(scrawlID)
			if a == nil {
				logger.Warn("saved annotation not in store", "scrawl_id", scrawlID)
				return
			}
			a.Label = label
			a.Note = note
			a.EnsureContentHash()
			if err := historyStore.Update(*a); err != nil {
				logger.Warn("failed to update annotation", "scrawl_id", scrawlID, "error", err)
			}
		})

		displayManager.SetResolveCallback(func(scrawlID string) {
			if err := historyStore.Resolve(scrawlID); err != nil {
				logger.Warn("failed to resolve annotation", "scrawl_id", scrawlID, "error", err)
			}
			annotState.SetStatus(scrawlID, daemon.AnnotationStatusResolved)
		})

		displayManager.SetCloseCallback(func(scrawlID string, reason dbus.RemoveReason) {
			// A closed editor leaves its marker behind; only a removed
			// marker leaves the overlay entirely.
			stillVisible := false
			for _, id := range displayManager.ActiveIDs() {
				if id == scrawlID {
					stillVisible = true
					break
				}
			}

			if stillVisible {
				if state := annotState.Get(scrawlID); state != nil && state.Status == daemon.AnnotationStatusEditing {
					annotState.SetStatus(scrawlID, daemon.AnnotationStatusVisible)
				}
				return
			}

			annotState.Remove(scrawlID)
			if err := dbusServer.RemoveWithReason(scrawlID, reason); err != nil {
				logger.Debug("failed to emit AnnotationRemoved", "scrawl_id", scrawlID, "error", err)
			}
		})

		// Start D-Bus server
		if err := dbusServer.Start(); err != nil {
			logger.Error("failed to start D-Bus server", "error", err)
			displayManager.Stop()
			app.Quit()
			return
		}

		// Restore markers for pending annotations from the last session
		restoreMarkers(historyStore, displayManager, annotState, cfg, logger)

		// Watch the history file for changes made by the CLI or TUI
		storeWatcher = daemon.NewStoreWatcher(historyPath, logger)
		storeWatcher.SetChangeCallback(func() {
			glib.IdleAdd(func() {
				syncExternalChanges(displayManager, annotState, dbusServer, logger)
			})
		})
		if err := storeWatcher.Start(ctx); err != nil {
			logger.Warn("failed to start store watcher", "error", err)
		}

		// Watch the state file for pause changes (e.g., scrawl pause toggle)
		statePath, err := store.StateFilePath()
		if err != nil {
			logger.Warn("failed to get state file path", "error", err)
		} else {
			stateWatcher = daemon.NewStateWatcher(statePath, logger)
			stateWatcher.SetChangeCallback(func() {
				newState, err := store.LoadSharedState()
				if err != nil {
					logger.Warn("failed to reload shared state", "error", err)
					return
				}
				if newState.CapturePaused != sharedState.CapturePaused {
					logger.Info("capture pause changed externally", "paused", newState.CapturePaused)
					if err := dbusServer.EmitCapturePausedChanged(newState.CapturePaused); err != nil {
						logger.Debug("failed to emit CapturePausedChanged", "error", err)
					}
				}
				sharedState = newState
			})
			if err := stateWatcher.Start(ctx); err != nil {
				logger.Warn("failed to start state watcher", "error", err)
			}
		}

		// Internal notifier posts transient self-annotations
		internalNotifier = daemon.NewInternalNotifier(logger)
		internalNotifier.SetAnnotateHandler(handleAnnotate)

		// Config hot-reload
		configWatcher, err = daemon.NewConfigWatcher(logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			configWatcher.SetReloadCallback(func(newConfig *config.DaemonConfig) {
				glib.IdleAdd(func() {
					displayManager.UpdateConfig(newConfig)
					audioManager.UpdateConfig(newConfig)

					if newConfig.Theme.Name != cfg.Theme.Name {
						if err := themeLoader.LoadTheme(newConfig.Theme.Name); err != nil {
							logger.Warn("failed to load new theme", "theme", newConfig.Theme.Name, "error", err)
							internalNotifier.NotifyThemeError(err)
						} else {
							themeLoader.Apply(nil)
							internalNotifier.NotifyThemeReloaded(newConfig.Theme.Name)
						}
					}

					cfg = newConfig
					internalNotifier.NotifyConfigReloaded()
				})
			})
			configWatcher.SetErrorCallback(func(err error) {
				internalNotifier.NotifyConfigError(err)
			})
			if err := configWatcher.Start(ctx, cfg); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
		}

		logger.Info("scrawld ready", "dbus_interface", dbus.DBusInterface)
		internalNotifier.NotifyStartup(version)

		// Create a hidden window to keep the application running
		// (GTK apps quit when all windows are closed)
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
	})

	// Handle shutdown
	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		shutdown()
		running.Store(false)
	})

	// Run the application
	status := app.Run(os.Args[:1])

	// Ensure context is cancelled
	cancel()

	if status != 0 {
		logger.Error("application exited with error", "status", status)
		os.Exit(status)
	}

	logger.Info("scrawld stopped")
}

// restoreMarkers re-shows markers for annotations that were pending when
// the daemon last stopped.
func restoreMarkers(
	historyStore *store.Store,
	displayManager *display.Manager,
	annotState *daemon.AnnotationStateManager,
	cfg *config.DaemonConfig,
	logger *slog.Logger,
) {
	annotations := historyStore.All()

	restored := 0
	for i := range annotations {
		a := annotations[i]
		if a.IsArchived() || a.IsResolved() {
			continue
		}
		if cfg.Behavior.HistoryLength > 0 && restored >= cfg.Behavior.HistoryLength {
			logger.Warn("marker restore capped", "limit", cfg.Behavior.HistoryLength)
			break
		}

		annotState.Register(a.ScrawlID, a.ScrawlSource, false)
		annotation := a
		glib.IdleAdd(func() {
			if err := displayManager.ShowMarker(&annotation); err != nil {
				logger.Warn("failed to restore marker", "scrawl_id", annotation.ScrawlID, "error", err)
			}
		})
		restored++
	}

	if restored > 0 {
		logger.Info("restored markers from history", "count", restored)
	}
}

// syncExternalChanges reconciles on-screen markers with the history file
// after an external change (e.g., scrawl set --resolve from the CLI).
// It reads the file directly so the daemon's in-memory store does not
// mask CLI edits.
func syncExternalChanges(
	displayManager *display.Manager,
	annotState *daemon.AnnotationStateManager,
	dbusServer *dbus.OverlayServer,
	logger *slog.Logger,
) {
	activeIDs := displayManager.ActiveIDs()
	if len(activeIDs) == 0 {
		return
	}

	historyPath, err := store.HistoryPath()
	if err != nil {
		logger.Warn("failed to get history path for external check", "error", err)
		return
	}

	persistence, err := store.NewJSONLPersistence(historyPath)
	if err != nil {
		logger.Warn("failed to open persistence for external check", "error", err)
		return
	}
	defer func() { _ = persistence.Close() }()

	annotations, err := persistence.Load()
	if err != nil {
		logger.Warn("failed to load annotations for external check", "error", err)
		return
	}

	currentState := make(map[string]*model.Annotation)
	for i := range annotations {
		currentState[annotations[i].ScrawlID] = &annotations[i]
	}

	for _, scrawlID := range activeIDs {
		if removedIDsCache[scrawlID] {
			continue
		}

		a, exists := currentState[scrawlID]
		if !exists {
			logger.Debug("annotation deleted externally, removing marker", "scrawl_id", scrawlID)
			removedIDsCache[scrawlID] = true
			annotState.Remove(scrawlID)
			displayManager.RemoveMarker(scrawlID, dbus.RemoveReasonRemoved)
			continue
		}

		if a.IsArchived() {
			logger.Debug("annotation archived externally, removing marker", "scrawl_id", scrawlID)
			removedIDsCache[scrawlID] = true
			annotState.Remove(scrawlID)
			displayManager.RemoveMarker(scrawlID, dbus.RemoveReasonArchived)
			continue
		}

		if a.IsResolved() {
			if state := annotState.Get(scrawlID); state != nil && state.Status != daemon.AnnotationStatusResolved {
				logger.Debug("annotation resolved externally", "scrawl_id", scrawlID)
				annotState.SetStatus(scrawlID, daemon.AnnotationStatusResolved)
				displayManager.SetResolved(scrawlID, true)
			}
		}
	}
}
