package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ayusman/posebridge/internal/app"
	"github.com/ayusman/posebridge/internal/channel"
	"github.com/ayusman/posebridge/internal/config"
	"github.com/ayusman/posebridge/internal/plugin"
	"github.com/ayusman/posebridge/internal/server"
	"github.com/ayusman/posebridge/internal/store"
	"github.com/ayusman/posebridge/internal/tracking"
	"github.com/ayusman/posebridge/internal/tray"
)

func main() {
	configPath := flag.String("config", "posebridge.yaml", "path to the configuration file")
	headless := flag.Bool("headless", false, "run without the system tray")
	flag.Parse()

	fmt.Println("PoseBridge - VR pose stream bridge")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	pipelineCfg, err := cfg.Pipeline()
	if err != nil {
		log.Fatalf("Invalid pipeline config: %v", err)
	}
	targets, err := cfg.GestureTargets()
	if err != nil {
		log.Fatalf("Invalid gestures: %v", err)
	}
	bindings, err := cfg.Bindings()
	if err != nil {
		log.Fatalf("Invalid plugin bindings: %v", err)
	}
	role, err := tracking.ParseHandRole(cfg.Tracking.HandRole)
	if err != nil {
		log.Fatalf("Invalid hand role: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var system tracking.System
	switch cfg.Tracking.Source {
	case "mqtt":
		mq := tracking.NewMQTTSystem(tracking.MQTTConfig{
			Broker:      cfg.Tracking.MQTT.Broker,
			ClientID:    cfg.Tracking.MQTT.ClientID,
			TopicPrefix: cfg.Tracking.MQTT.TopicPrefix,
			StaleAfter:  cfg.MQTTStaleAfter(),
		})
		if err := mq.Connect(); err != nil {
			log.Fatalf("Failed to start tracking: %v", err)
		}
		defer mq.Close()
		system = mq
	default:
		log.Println("Using demo tracking source")
		system = tracking.NewDemoTable()
	}

	var st *store.Store
	if cfg.Store.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		st, err = store.New(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer st.Close()
	}

	var dispatcher *plugin.Dispatcher
	if len(bindings) > 0 {
		manager := plugin.NewManager(cfg.Plugins.Dir)
		if err := manager.Discover(); err != nil {
			log.Fatalf("Failed to discover plugins: %v", err)
		}
		log.Printf("Discovered %d plugins in %s", len(manager.List()), manager.PluginDir())
		dispatcher = plugin.NewDispatcher(manager, plugin.NewExecutor(cfg.Plugins.TimeoutMs), bindings, cfg.Plugins.QueueSize)
		dispatcher.Start(ctx)
	}

	sink, err := channel.Listen(cfg.Output.Network, cfg.Output.Address)
	if err != nil {
		log.Fatalf("Failed to open output channel: %v", err)
	}
	defer sink.Close()
	sink.SetWriteTimeout(cfg.WriteTimeout())
	log.Printf("Writing %s packets to %s %s", cfg.Output.Format, cfg.Output.Network, sink.Addr())

	var tr *tray.Tray
	if cfg.Tray.Enabled && !*headless {
		tr = tray.New()
	}
	if tr != nil {
		sink.Notify(
			func(string) { tr.SetConsumerConnected(true) },
			func(error) { tr.SetConsumerConnected(false) },
		)
	}

	hub := server.NewFrameHub(cfg.Server.FrameRate)
	bridge := app.New(app.Config{
		Pipeline:       pipelineCfg,
		Targets:        targets,
		HandRole:       role,
		FrameInterval:  cfg.FrameInterval(),
		RescanInterval: cfg.RescanInterval(),
		ZeroTarget:     cfg.ZeroTarget(),
		System:         system,
		Sink:           sink,
		Store:          st,
		Dispatcher:     dispatcher,
		OnFrame: func(f app.Frame) {
			hub.Publish(f)
			if tr != nil && len(f.Gestures) > 0 {
				tr.SetLastGesture(f.Gestures[0])
			}
		},
	})
	log.Printf("Session %s started", bridge.SessionID())

	if cfg.Server.Enabled {
		httpSrv := &http.Server{
			Addr: cfg.Server.Addr,
			Handler: server.New(server.Config{
				StaticDir:  cfg.Server.StaticDir,
				Controller: bridge,
				Store:      st,
				Frames:     hub,
			}),
		}
		go func() {
			log.Printf("Starting server on %s", cfg.Server.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			httpSrv.Shutdown(shutdownCtx)
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := bridge.Run(ctx); err != nil {
			log.Printf("Bridge stopped: %v", err)
		}
	}()

	if tr != nil {
		tr.OnToggle(bridge.SetStreaming)
		tr.OnZero(bridge.RequestZero)
		tr.OnReset(bridge.RequestResetCalibration)
		tr.OnQuit(cancel)
		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		// The tray owns the main thread until it quits.
		tr.Run()
		cancel()
	}

	<-done
	if dispatcher != nil {
		dispatcher.Wait()
	}
	status := bridge.Status()
	log.Printf("Session %s ended: %d frames processed, %d sent, %d dropped",
		status.SessionID, status.FramesProcessed, status.FramesSent, status.FramesDropped)
}
