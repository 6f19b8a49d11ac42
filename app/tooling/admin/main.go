// This program performs offline administrative tasks against the block
// storage of a node.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/pocledger/pocledger/app/tooling/admin/commands"
	"github.com/pocledger/pocledger/business/sys/store"
	"github.com/pocledger/pocledger/foundation/blockchain/genesis"
	"github.com/pocledger/pocledger/foundation/blockchain/ledger"
	"github.com/pocledger/pocledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			log.Errorw("startup", "ERROR", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args    conf.Args
		Storage struct {
			Kind string `conf:"default:disk"`
			Path string `conf:"default:zblock/blocks"`
		}
		Genesis struct {
			Path string `conf:"default:zblock/genesis.json"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen, err := genesis.Load(cfg.Genesis.Path)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	st, err := store.Open(store.Config{
		Kind: cfg.Storage.Kind,
		Path: cfg.Storage.Path,
		Log:  log,
	})
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	// Loading the ledger re-verifies every stored block.
	l, err := ledger.New(ledger.Config{
		Genesis: gen,
		Storage: st.Blocks,
		EvHandler: func(v string, args ...any) {
			log.Debugf(v, args...)
		},
	})
	if err != nil {
		st.Blocks.Close()
		return err
	}
	defer l.Shutdown()

	return processCommands(cfg.Args, l)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, l *ledger.Ledger) error {
	switch args.Num(0) {
	case "bals":
		if err := commands.Balances(os.Stdout, l, args.Num(1)); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "blocks":
		if err := commands.Blocks(os.Stdout, l, args.Num(1), args.Num(2)); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}

	case "verify":
		if err := commands.Verify(os.Stdout, l); err != nil {
			return fmt.Errorf("verifying chain: %w", err)
		}

	default:
		fmt.Println("bals [address]:      show the balance of every address or of one address")
		fmt.Println("blocks [start] [end]: show the blocks with index in [start, end)")
		fmt.Println("verify:               re-verify the whole chain")
		return commands.ErrHelp
	}

	return nil
}
