package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/config"
	"github.com/l1jgo/frontier/internal/core/event"
	coresys "github.com/l1jgo/frontier/internal/core/system"
	"github.com/l1jgo/frontier/internal/data"
	"github.com/l1jgo/frontier/internal/disposition"
	"github.com/l1jgo/frontier/internal/persist"
	"github.com/l1jgo/frontier/internal/scripting"
	"github.com/l1jgo/frontier/internal/spawn"
	"github.com/l1jgo/frontier/internal/system"
	"github.com/l1jgo/frontier/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Printf("\033[36;1m  │\033[0m  %-41s\033[36;1m│\033[0m\n", "frontier  v0.1.0")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main simulation logic ─────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/frontier.toml"
	if p := os.Getenv("FRONTIER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Load static data
	printSection("data")
	yamlDir := filepath.Join(cfg.Simulation.DataDir, "yaml")

	worldDef, err := data.LoadWorld(filepath.Join(yamlDir, "world.yaml"))
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	printStat("rings", len(worldDef.Rings))

	actorTable, err := data.LoadActorTable(filepath.Join(yamlDir, "actor_list.yaml"))
	if err != nil {
		return fmt.Errorf("load actor table: %w", err)
	}
	printStat("actor types", actorTable.Count())

	spawnList, err := data.LoadSpawnList(filepath.Join(yamlDir, "spawn_list.yaml"))
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}
	printStat("spawn list", len(spawnList))

	terrain, err := data.LoadTerrain(filepath.Join(yamlDir, "map_list.yaml"), filepath.Join(cfg.Simulation.DataDir, "map"))
	if err != nil {
		return fmt.Errorf("load terrain: %w", err)
	}
	printStat("terrain sheets", terrain.Count())
	fmt.Println()

	// 4. Storage: PostgreSQL when enabled, otherwise config-seeded flags
	flags := persist.NewFlagSet(cfg.Flags.Set...)
	var (
		flagRepo   *persist.FlagRepo
		timerRepo  *persist.SlotTimerRepo
		storedRows []persist.SlotTimerRow
	)
	if cfg.Database.Enabled {
		printSection("database")
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(dbCtx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("schema at version %d", version))

		flagRepo = persist.NewFlagRepo(db)
		timerRepo = persist.NewSlotTimerRepo(db)

		names, err := flagRepo.LoadAll(dbCtx)
		if err != nil {
			return fmt.Errorf("load flags: %w", err)
		}
		for _, n := range names {
			flags.Set(n, true)
		}
		if storedRows, err = timerRepo.LoadAll(dbCtx); err != nil {
			return fmt.Errorf("load slot timers: %w", err)
		}
		printStat("stored timers", len(storedRows))
		fmt.Println()
	}
	printStat("flags set", len(flags.Names()))

	// 5. World state, clock and collaborators
	ws := world.NewState(buildBase(worldDef.Base), buildRings(worldDef.Rings))
	ws.Player = &world.Player{
		ID:           1,
		Pos:          world.Vec{X: float64(cfg.Simulation.PlayerStartX), Y: float64(cfg.Simulation.PlayerStartY)},
		Level:        cfg.Simulation.PlayerLevel,
		ActiveRadius: cfg.Simulation.PlayerActiveRadius,
	}
	for i, g := range worldDef.Guards {
		ws.Guards = append(ws.Guards, &world.Guard{ID: uint64(i + 1), Pos: world.Vec{X: g.X, Y: g.Y}, Level: g.Level})
	}

	mono := clock.NewMonotonic()
	norm := clock.NewNormalizer(mono.WallEpoch(), log)

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>17|1))

	gates, err := scripting.NewGateEngine(cfg.Simulation.ScriptDir, log)
	if err != nil {
		return fmt.Errorf("gate scripts: %w", err)
	}
	defer gates.Close()

	bus := event.NewBus()
	logEvents(bus, log)

	disp := disposition.NewEngine(cfg.Disposition, ws, bus, terrain, log)
	director := spawn.NewDirector(cfg.Spawn, spawn.Deps{
		State:  ws,
		Disp:   disp,
		Actors: actorTable,
		Walk:   terrain,
		Flags:  flags,
		Gates:  gates,
		Clock:  mono,
		Rand:   rng,
		Bus:    bus,
		Log:    log,
	})

	// 6. Spawners: footprints, stored timers, then the load-time fill
	printSection("population")
	if err := director.Init(spawnList); err != nil {
		return fmt.Errorf("init spawners: %w", err)
	}
	printStat("spawners", len(ws.Spawners()))
	printStat("timers restored", director.RestoreSlotTimers(system.TimersFromRows(storedRows, norm)))
	printStat("bootstrap actors", director.Bootstrap())
	fmt.Println()

	// 7. Create systems and register with runner
	commands := make(chan system.Command, 64)
	var flagWrites chan persist.FlagChange
	if flagRepo != nil {
		flagWrites = make(chan persist.FlagChange, 64)
	}
	combat := system.NewDispositionSystem(ws, disp, director, mono)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(ws, director, combat, flags, flagWrites, commands, 16, log))
	runner.Register(system.NewPopulationSystem(director, cfg.Simulation.PopulationInterval, log))
	runner.Register(combat)
	runner.Register(system.NewOutputSystem(bus))
	runner.Register(system.NewCleanupSystem(ws))

	var (
		persistSys *system.PersistenceSystem
		snapshots  chan []persist.SlotTimerRow
	)
	if timerRepo != nil {
		snapshots = make(chan []persist.SlotTimerRow, 1)
		persistSys = system.NewPersistenceSystem(director, norm, snapshots, cfg.Persist.SaveInterval, log)
		runner.Register(persistSys)
	}

	// Blocked on stdin until exit; not part of the group.
	go readConsole(os.Stdin, commands, log)

	// 8. Start game loop
	printSection("ready")
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Simulation.TickRate))
	printReady("console: " + consoleHelp)
	fmt.Println()

	g, gctx := errgroup.WithContext(ctx)
	if timerRepo != nil {
		g.Go(func() error {
			return system.RunTimerWriter(gctx, timerRepo, snapshots, log)
		})
	}
	if flagRepo != nil {
		g.Go(func() error {
			return system.RunFlagWriter(gctx, flagRepo, flagWrites, log)
		})
	}
	g.Go(func() error {
		return gameLoop(gctx, runner, cfg.Simulation.TickRate)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown signal received", zap.Uint64("ticks", runner.Ticks()))

	if persistSys != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rows := persistSys.Snapshot()
		if err := timerRepo.ReplaceAll(saveCtx, rows); err != nil {
			log.Error("final timer save", zap.Error(err))
		} else {
			log.Info("slot timers saved", zap.Int("count", len(rows)))
		}
	}
	log.Info("simulation stopped")
	return nil
}

// gameLoop ticks the runner at a fixed rate until ctx is cancelled. All
// world mutation happens on this goroutine.
func gameLoop(ctx context.Context, runner *coresys.Runner, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			runner.Tick(tick)
		case <-ctx.Done():
			return nil
		}
	}
}

const consoleHelp = "move X Y | flag NAME on|off | hit ACTOR DMG | disable SPAWNER | guard X Y LEVEL"

// readConsole parses operator lines from r and queues them for the input
// system. A full queue drops the command.
func readConsole(r io.Reader, out chan<- system.Command, log *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, err := system.ParseCommand(line)
		if err != nil {
			log.Warn("bad command", zap.String("line", line), zap.Error(err))
			continue
		}
		select {
		case out <- cmd:
		default:
			log.Warn("command queue full, dropped", zap.String("op", cmd.Op))
		}
	}
}

func buildBase(def data.BaseDef) world.Base {
	return world.Base{
		Center: world.Vec{X: float64(def.CenterX), Y: float64(def.CenterY)},
		Bounds: world.Rect{
			Min: world.Tile{X: def.MinX, Y: def.MinY},
			Max: world.Tile{X: def.MaxX, Y: def.MaxY},
		},
	}
}

func buildRings(defs []data.RingDef) []*world.Ring {
	rings := make([]*world.Ring, 0, len(defs))
	for _, d := range defs {
		rings = append(rings, &world.Ring{
			Name:        d.Name,
			Inner:       d.Inner,
			Outer:       d.Outer,
			StrayWeight: d.StrayWeight,
			GroupWeight: d.GroupWeight,
			Pool:        d.Pool,
			LevelMin:    d.LevelMin,
			LevelMax:    d.LevelMax,
			MaxAlive:    d.MaxAlive,
			Scatter:     d.Scatter,
		})
	}
	return rings
}

// logEvents subscribes the render/combat-facing events to the log. A real
// client would subscribe here instead.
func logEvents(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(ev event.ActorsSpawned) {
		log.Debug("actors spawned",
			zap.String("spawner", ev.SpawnerID),
			zap.Int("count", len(ev.Actors)),
			zap.Bool("bootstrap", ev.Bootstrap))
	})
	event.Subscribe(bus, func(ev event.ActorDisengaged) {
		log.Info("actor disengaged", zap.Uint64("actor", uint64(ev.Actor)), zap.String("reason", ev.Reason))
	})
	event.Subscribe(bus, func(ev event.ActorReset) {
		log.Debug("actor reset", zap.Uint64("actor", uint64(ev.Actor)))
	})
	event.Subscribe(bus, func(ev event.SlotReleased) {
		fields := []zap.Field{zap.String("spawner", ev.SpawnerID), zap.Int("slot", ev.Slot)}
		if ev.RespawnAt.IsSet() {
			fields = append(fields, zap.Int64("respawn_at", ev.RespawnAt.Millis()))
		}
		log.Info("slot released", fields...)
	})
	event.Subscribe(bus, func(ev event.SpawnerDisabled) {
		log.Info("spawner disabled", zap.String("spawner", ev.SpawnerID), zap.Int("despawned", ev.Despawned))
	})
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
