package main

import (
	"log"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"

	"cscx/classifier"
	"cscx/config"
	"cscx/db"
	"cscx/executor"
	"cscx/gate"
	"cscx/planner"
	"cscx/platform/shutdown"
	"cscx/providers"
	"cscx/task"
	"cscx/web"
)

func main() {
	config.Initialize()
	cfg := config.Get()

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	store := db.NewStore(database)

	registry := task.NewRegistry()

	var llm classifier.CompletionClient
	if cfg.LLM.APIKey != "" {
		llm = providers.NewAnthropicClient()
	} else {
		logger.Info("No API key configured; LLM fallback tier disabled")
	}

	cls := classifier.New(registry, llm, cfg.Classifier)
	pln := planner.New(registry, planner.NewSnapshotAggregator())

	workspace := executor.NewWorkspace()
	g := gate.New(store, workspace, workspace, cfg.Gate)
	g.SetNotifier(web.BroadcastPlanUpdate)

	// Create a new rweb server with options
	s := rweb.NewServer(rweb.ServerOptions{
		Address: cfg.Address,
		Verbose: true,
	})

	// Add middleware for request logging
	s.Use(rweb.RequestInfo)

	web.SetupRoutes(s, &web.Pipeline{
		Classifier: cls,
		Planner:    pln,
		Gate:       g,
		Store:      store,
	})

	// Graceful shutdown: close the DB after in-flight requests drain
	done := make(chan struct{})
	shutdown.InitShutdownService(done)
	shutdown.RegisterHook(func(_ time.Duration) error {
		return database.Close()
	})

	go func() {
		log.Printf("Starting CSCX server on %s", cfg.Address)
		if err := s.Run(); err != nil {
			log.Fatal(err)
		}
	}()

	<-done
	logger.Info("Server shut down")
}
