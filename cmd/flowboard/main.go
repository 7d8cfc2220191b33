package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"flowboard/internal/api"
	"flowboard/internal/bus"
	"flowboard/internal/config"
	"flowboard/internal/graph"
	"flowboard/internal/metrics"
	"flowboard/internal/monitor"
	"flowboard/internal/mqtt"
	"flowboard/internal/version"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("FLOWBOARD_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/flowboard.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load %s: %v", cfgPath, err)
	}

	g, err := graph.Load(cfg.GraphPath())
	if err != nil {
		log.Fatalf("failed to load workflow graph: %v", err)
	}
	log.Printf("flowboard %s: %d nodes, %d edges", version.Version, len(g.Nodes), len(g.Edges))

	b := bus.New()
	m := metrics.New(b)
	hub := monitor.NewHub(b, g, cfg.ActivityWindow(), cfg.SweepInterval(), m)
	hub.Start(monitor.DefaultReapInterval)

	var bridge *mqtt.Bridge
	if cfg.MQTT.Enabled {
		client := mqtt.NewClient(mqtt.BrokerURL(cfg.MQTT.URL), "flowboard-ingress")
		bridge = mqtt.NewBridge(client, b, cfg.Topic(), m)
		bridge.Start()
		api.StartAlertMonitor(10*time.Second, bridge.IsConnected)
	}

	api.InitTLS()
	api.InitAlerts()

	srv := api.NewServer(b, g, hub, m)
	go func() {
		if err := srv.ListenAndServe(cfg.Port()); err != nil {
			log.Fatalf("api server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
	if bridge != nil {
		bridge.Stop()
	}
	hub.Stop()
	b.Shutdown()
}
