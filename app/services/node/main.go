package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/pocledger/pocledger/app/services/node/handlers"
	"github.com/pocledger/pocledger/business/sys/metrics"
	"github.com/pocledger/pocledger/business/sys/store"
	"github.com/pocledger/pocledger/foundation/blockchain/database"
	"github.com/pocledger/pocledger/foundation/blockchain/discovery"
	"github.com/pocledger/pocledger/foundation/blockchain/genesis"
	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
	"github.com/pocledger/pocledger/foundation/blockchain/worker"
	"github.com/pocledger/pocledger/foundation/events"
	"github.com/pocledger/pocledger/foundation/logger"
	"github.com/pocledger/pocledger/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:127.0.0.1:9080"`
		}
		Ledger struct {
			GenesisPath    string        `conf:"default:zblock/genesis.json"`
			Beneficiary    string        `conf:"help:address receiving the mining reward of sealed blocks"`
			SealTimeout    time.Duration `conf:"default:30s"`
			MaxPOWAttempts uint64        `conf:"default:0,help:0 searches until the seal timeout"`
			VerifyInterval time.Duration `conf:"default:5m,help:0 disables the periodic chain check"`
		}
		Storage struct {
			Kind string `conf:"default:badger,help:memory disk or badger"`
			Path string `conf:"default:zblock/blocks"`
		}
		Discovery struct {
			Host              string        `conf:"default:0.0.0.0:9180"`
			BroadcastHost     string        `conf:"default:255.255.255.255:9180"`
			BroadcastInterval time.Duration `conf:"default:10s"`
			KnownPeers        []string
		}
		NameService struct {
			Folder string `conf:"default:zblock/wallets/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for addresses. The
	// names come from the file names in the wallet folder.
	if err := os.MkdirAll(cfg.NameService.Folder, 0755); err != nil {
		return fmt.Errorf("creating wallet folder: %w", err)
	}

	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load wallet name service: %w", err)
	}

	// Logging the addresses for documentation in the logs.
	for address, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "address", address)
	}

	// =========================================================================
	// Blockchain Support

	gen, err := genesis.Load(cfg.Ledger.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis: %w", err)
	}

	var beneficiary database.Address
	if cfg.Ledger.Beneficiary != "" {
		beneficiary, err = database.ToAddress(cfg.Ledger.Beneficiary)
		if err != nil {
			return fmt.Errorf("beneficiary: %w", err)
		}
	}

	st, err := store.Open(store.Config{
		Kind: cfg.Storage.Kind,
		Path: cfg.Storage.Path,
		Log:  log,
	})
	if err != nil {
		return fmt.Errorf("unable to open storage: %w", err)
	}

	// A peer set is a collection of known nodes found through discovery.
	// With badger storage the peers survive a restart.
	peerSet, err := st.PeerSet()
	if err != nil {
		st.Blocks.Close()
		return fmt.Errorf("unable to load peers: %w", err)
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. For now, these raw messages are sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)

		switch {
		case strings.HasPrefix(v, "ledger: SealBlock: MINING: SEALED"):
			metrics.AddSealed()
		case strings.HasPrefix(v, "discovery: handle:") && strings.Contains(v, "new peer"):
			metrics.SetPeers(peerSet.Count())
		}
	}

	// The ledger value represents the chain and the pending queue and provides
	// an API for application support. An empty storage is bootstrapped with
	// the genesis block.
	l, err := ledger.New(ledger.Config{
		Genesis:        gen,
		Storage:        st.Blocks,
		Beneficiary:    beneficiary,
		SealTimeout:    cfg.Ledger.SealTimeout,
		MaxPOWAttempts: cfg.Ledger.MaxPOWAttempts,
		EvHandler:      ev,
	})
	if err != nil {
		st.Blocks.Close()
		return err
	}
	defer l.Shutdown()

	// The discovery service answers HELLO messages and records the peers
	// that answer ours.
	disc, err := discovery.New(discovery.Config{
		Addr:          cfg.Discovery.Host,
		BroadcastAddr: cfg.Discovery.BroadcastHost,
		Peers:         peerSet,
		EvHandler:     ev,
	})
	if err != nil {
		return fmt.Errorf("unable to start discovery: %w", err)
	}
	disc.Run()
	defer disc.Shutdown()

	for _, host := range cfg.Discovery.KnownPeers {
		if err := disc.SendHello(host); err != nil {
			log.Errorw("startup", "status", "hello to known peer", "host", host, "ERROR", err)
		}
	}
	metrics.SetPeers(peerSet.Count())

	// The worker package runs the periodic discovery broadcast and the chain
	// integrity check.
	wrk := worker.Run(worker.Config{
		Broadcaster:       disc,
		Verifier:          l,
		BroadcastInterval: cfg.Discovery.BroadcastInterval,
		VerifyInterval:    cfg.Ledger.VerifyInterval,
		EvHandler:         ev,
	})
	defer wrk.Shutdown()

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, l)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:  shutdown,
		Log:       log,
		Ledger:    l,
		Peers:     peerSet,
		LocalHost: disc.LocalAddr(),
		NS:        ns,
		Evts:      evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	// Construct the mux for the private API calls.
	privateMux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown:  shutdown,
		Log:       log,
		Ledger:    l,
		Peers:     peerSet,
		LocalHost: disc.LocalAddr(),
		NS:        ns,
	})

	// Construct a server to service the requests against the mux.
	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      privateMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
