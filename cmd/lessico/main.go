package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hazyhaar/lessico/pkg/api"
	"github.com/hazyhaar/lessico/pkg/config"
	"github.com/hazyhaar/lessico/pkg/journal"
	"github.com/hazyhaar/lessico/pkg/kit"
	"github.com/hazyhaar/lessico/pkg/ledger"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const version = "0.4.0"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "lessico: %s\n", kit.ErrorText(err))
		}
		os.Exit(1)
	}
}

var commands = map[string]func(args []string, stdout io.Writer) error{
	"init":     cmdInit,
	"check":    cmdCheck,
	"add":      cmdAdd,
	"exists":   cmdExists,
	"import":   cmdImport,
	"finalize": cmdFinalize,
	"enrich":   cmdEnrich,
	"history":  cmdHistory,
	"serve":    cmdServe,
	"mcp":      cmdMCP,
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		usage()
		return errors.New("missing command")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd(args[1:], stdout)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: lessico <command> [flags]

Commands:
  init       Create a table file holding only the header
  check      Look English terms up, appending the missing ones lowercased
  add        Append terms verbatim to a column unless already present
  exists     Report whether a value is present in a column
  import     Check-or-add every term of a word list
  finalize   Deduplicate, merge and sort a table in place
  enrich     Fill taxonomy, CEFR level and example sentence fields
  history    Show recorded finalize passes
  serve      Start the HTTP server
  mcp        Serve the MCP tools over stdio

Every command accepts -config <file> and -table <id or path>.
`)
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	config string
	table  string
}

func newFlagSet(name string, cf *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cf.config, "config", "", "path to config file (default $LESSICO_CONFIG or "+config.DefaultPath+")")
	fs.StringVar(&cf.table, "table", "", "table ID from the config, or a path to a table file")
	return fs
}

// app holds what every subcommand needs once flags are parsed.
type app struct {
	flags   commonFlags
	cfg     *config.Config
	logger  *slog.Logger
	journal *journal.Journal
	reg     *ledger.Registry
}

func newApp(cf commonFlags) (*app, error) {
	cfg, err := loadConfig(cf)
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.Log)

	var j *journal.Journal
	if cfg.Journal != "" {
		if j, err = journal.Open(cfg.Journal); err != nil {
			return nil, err
		}
	}
	reg := ledger.NewRegistry(j, logger)
	if err := reg.Load(cfg.Tables); err != nil {
		if j != nil {
			j.Close()
		}
		return nil, err
	}
	return &app{flags: cf, cfg: cfg, logger: logger, journal: j, reg: reg}, nil
}

// loadConfig reads the config file, or builds a one-table config when -table
// names a file and no config file is given.
func loadConfig(cf commonFlags) (*config.Config, error) {
	if cf.config == "" && looksLikePath(cf.table) {
		return config.ForTable(cf.table)
	}
	cfg, err := config.Load(cf.config)
	if err != nil {
		return nil, err
	}
	if looksLikePath(cf.table) {
		if _, ok := cfg.Table(tableID(cf.table)); !ok {
			cfg.Tables = append(cfg.Tables, config.TableSpec{ID: tableID(cf.table), Path: cf.table})
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("config: validate: %w", err)
			}
		}
	}
	return cfg, nil
}

func looksLikePath(s string) bool {
	return strings.ContainsRune(s, filepath.Separator) || strings.ContainsRune(s, '/') || filepath.Ext(s) != ""
}

func tableID(s string) string {
	if !looksLikePath(s) {
		return s
	}
	return strings.TrimSuffix(filepath.Base(s), filepath.Ext(s))
}

// ledger returns the table selected by -table, or the only configured one.
func (a *app) ledger() (*ledger.Ledger, error) {
	if a.flags.table != "" {
		return a.reg.Get(tableID(a.flags.table))
	}
	all := a.reg.Ledgers()
	switch len(all) {
	case 1:
		return all[0], nil
	case 0:
		return nil, errors.New("no table configured: pass -table or add tables to the config")
	}
	ids := make([]string, len(all))
	for i, l := range all {
		ids[i] = l.ID()
	}
	return nil, fmt.Errorf("-table is required, have %s", strings.Join(ids, ", "))
}

func (a *app) close() {
	if a.journal != nil {
		a.journal.Close()
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func cmdServe(args []string, _ io.Writer) error {
	var cf commonFlags
	fs := newFlagSet("serve", &cf)
	addr := fs.String("addr", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(cf)
	if err != nil {
		return err
	}
	defer a.close()
	if *addr != "" {
		a.cfg.Addr = *addr
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           api.NewRouter(a.reg, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGHUP: reload table configuration.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signalContext()
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("lessico listening", "addr", a.cfg.Addr, "tables", a.reg.Count())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-sighup:
				a.reload()
			}
		}
	})
	if a.cfg.FinalizeInterval > 0 {
		g.Go(func() error {
			a.logger.Info("finalize scheduler started", "interval", a.cfg.FinalizeInterval)
			ledger.NewScheduler(a.reg, a.logger, a.cfg.FinalizeInterval).Start(gctx)
			return nil
		})
	}
	return g.Wait()
}

// reload re-reads the table list. Address, journal and log settings keep
// their startup values.
func (a *app) reload() {
	a.logger.Info("SIGHUP received, reloading tables")
	cfg, err := loadConfig(a.flags)
	if err != nil {
		a.logger.Error("reload failed", "error", err)
		return
	}
	if err := a.reg.Load(cfg.Tables); err != nil {
		a.logger.Error("reload failed", "error", err)
		return
	}
	a.logger.Info("tables reloaded", "count", a.reg.Count())
}

func cmdMCP(args []string, _ io.Writer) error {
	var cf commonFlags
	fs := newFlagSet("mcp", &cf)
	if err := fs.Parse(args); err != nil {
		return err
	}
	a, err := newApp(cf)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.NewMCPServer("lessico", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, a.reg, a.logger)
	a.logger.Info("mcp server on stdio", "tables", a.reg.Count())
	return server.ServeStdio(srv)
}
