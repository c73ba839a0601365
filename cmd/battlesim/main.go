// Package main provides the battle simulator binary: it loads two squads,
// runs one seeded battle and prints the report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/report"
	"github.com/cory-johannsen/skirmish/internal/game/roster"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
	"github.com/cory-johannsen/skirmish/internal/storage/sqlite"
)

type flags struct {
	config  string
	squadA  string
	squadB  string
	seed    int64
	quiet   bool
	archive string
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "path to configuration file; empty = defaults and environment")
	flag.StringVar(&f.squadA, "squad-a", "red", "team A squad: a name in content.squads_dir or a YAML path")
	flag.StringVar(&f.squadB, "squad-b", "blue", "team B squad: a name in content.squads_dir or a YAML path")
	flag.Int64Var(&f.seed, "seed", 0, "random seed; 0 = battle.seed from config, or fresh")
	flag.BoolVar(&f.quiet, "quiet", false, "print only the outcome and survivors")
	flag.StringVar(&f.archive, "archive", "", "override archive.driver: none, postgres or sqlite")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(f.config)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if f.archive != "" {
		cfg.Archive.Driver = f.archive
		if err := cfg.Validate(); err != nil {
			log.Fatalf("invalid -archive: %v", err)
		}
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if err := run(ctx, cfg, f, logger, os.Stdout); err != nil {
		logger.Fatal("battle failed", zap.Error(err))
	}
}

// run wires the content, simulates one battle, renders it to out and
// archives it.
func run(ctx context.Context, cfg config.Config, f flags, logger *zap.Logger, out io.Writer) error {
	start := time.Now()

	cat, err := loadCatalog(cfg.Content)
	if err != nil {
		return err
	}
	conds, err := loadConditions(cfg.Content)
	if err != nil {
		return err
	}
	logger.Info("content loaded",
		zap.Int("abilities", cat.Len()),
		zap.Int("conditions", len(conds.All())),
	)

	mgr := scripting.NewManager(logger.Named("lua"))
	defer mgr.Close()
	if cfg.Content.ScriptsDir != "" {
		err = mgr.Load(cfg.Content.ScriptsDir, cfg.Content.ScriptInstructionLimit)
	} else {
		err = mgr.LoadFS(skill.Scripts, "scripts", cfg.Content.ScriptInstructionLimit)
	}
	if err != nil {
		return fmt.Errorf("loading scripts: %w", err)
	}
	hooks := skill.Builtin(logger)
	if err := skill.RegisterScripted(hooks, cat, mgr); err != nil {
		return fmt.Errorf("registering scripted skills: %w", err)
	}

	squadA, err := resolveSquad(f.squadA, cfg.Content.SquadsDir, cat)
	if err != nil {
		return err
	}
	squadB, err := resolveSquad(f.squadB, cfg.Content.SquadsDir, cat)
	if err != nil {
		return err
	}

	metrics, err := observability.NewRecorder(nil)
	if err != nil {
		return err
	}

	seed := f.seed
	if seed == 0 {
		seed = cfg.Battle.Seed
	}
	if seed == 0 {
		seed = dice.NewSeed()
	}
	res, err := battle.SimulateContext(ctx, prefixed(squadA.Units(), "a."), prefixed(squadB.Units(), "b."), battle.Options{
		Catalog:        cat,
		Conditions:     conds,
		Hooks:          hooks,
		Seed:           seed,
		Logger:         observability.BattleLogger(logger, squadA.Name, squadB.Name, seed),
		Metrics:        metrics,
		MaxTicks:       cfg.Battle.MaxTicks,
		SwitchCooldown: cfg.Battle.SwitchCooldown,
		Reinforcement:  battle.Reinforcement(cfg.Battle.Reinforcement),
	})
	if err != nil {
		return fmt.Errorf("simulating: %w", err)
	}

	rep := report.New(squadA.Name, squadB.Name, res, time.Now())
	if err := report.Render(out, rep, f.quiet); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if store != nil {
		if err := store.Save(ctx, rep); err != nil {
			return fmt.Errorf("archiving report: %w", err)
		}
		logger.Info("report archived",
			zap.String("driver", cfg.Archive.Driver),
			zap.String("id", rep.ID.String()),
		)
	}

	logger.Info("battle complete",
		zap.String("winner", string(res.Winner)),
		zap.Int64("seed", res.Seed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func loadCatalog(c config.ContentConfig) (*catalog.Catalog, error) {
	cat := catalog.Builtin()
	if c.AbilitiesDir == "" {
		return cat, nil
	}
	extra, err := catalog.LoadDirectory(c.AbilitiesDir)
	if err != nil {
		return nil, err
	}
	cat.Merge(extra)
	return cat, nil
}

func loadConditions(c config.ContentConfig) (*condition.Registry, error) {
	reg := condition.Builtin()
	if c.ConditionsDir == "" {
		return reg, nil
	}
	extra, err := condition.LoadDirectory(c.ConditionsDir)
	if err != nil {
		return nil, err
	}
	for _, def := range extra.All() {
		reg.Register(def)
	}
	return reg, nil
}

// resolveSquad treats arg as a file when it names a .yaml path and as a
// squad name inside dir otherwise.
func resolveSquad(arg, dir string, cat *catalog.Catalog) (*roster.Squad, error) {
	p := arg
	if !strings.HasSuffix(arg, ".yaml") {
		p = filepath.Join(dir, arg+".yaml")
	}
	return roster.LoadSquad(p, cat)
}

// prefixed namespaces unit ids so two squads built from the same file can
// fight each other.
func prefixed(units []*unit.Unit, prefix string) []*unit.Unit {
	for _, u := range units {
		u.ID = prefix + u.ID
	}
	return units
}

// openStore returns the configured archive, or nil for driver "none".
func openStore(ctx context.Context, cfg config.Config) (report.Store, func(), error) {
	switch cfg.Archive.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		return pool.Reports(), pool.Close, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.Archive.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	return nil, func() {}, nil
}
