package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gopkg.in/alecthomas/kingpin.v2"

	"tableDB/internal/cell"
	"tableDB/internal/config"
	"tableDB/internal/engine"
	"tableDB/internal/logging"
	"tableDB/internal/storage"
	"tableDB/internal/storage/filestore"
	"tableDB/internal/storage/leveldbstore"
)

var (
	app        = kingpin.New("tabledb", "Embedded schema-typed table store.")
	configPath = app.Flag("config", "YAML or JSON configuration file.").Short('c').String()
	saveDir    = app.Flag("dir", "Save directory, overrides the configuration.").Short('d').String()
	storeKind  = app.Flag("store", "Storage backend, overrides the configuration.").Enum(config.StoreFile, config.StoreLevelDB)

	demoCmd   = app.Command("demo", "Build sample tables, rename a key with cascade and save everything.")
	tablesCmd = app.Command("tables", "List the tables in the save directory.")
	dumpCmd   = app.Command("dump", "Print one table.")
	dumpTable = dumpCmd.Arg("table", "Table name.").Required().String()
	fksCmd    = app.Command("fks", "List foreign-key constraints.")
)

func main() {
	app.HelpFlag.Short('h')
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cmd); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
	}
	if *saveDir != "" {
		cfg.SaveDir = *saveDir
	}
	if *storeKind != "" {
		cfg.Store = *storeKind
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cmd string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	mgr := engine.New(store,
		engine.WithLogger(log),
		engine.WithStringCapacity(cfg.StringCapacity),
		engine.WithLoadOnStart(cfg.LoadOnStart),
	)
	defer mgr.Close()

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	// read-only commands always need the saved tables
	if !cfg.LoadOnStart && cmd != demoCmd.FullCommand() {
		if err := mgr.LoadAll(ctx); err != nil {
			return err
		}
	}

	switch cmd {
	case demoCmd.FullCommand():
		return demo(ctx, mgr)

	case tablesCmd.FullCommand():
		for _, name := range mgr.ListTables() {
			t, _ := mgr.Table(name)
			fmt.Printf("%s\t%s\t%d rows\n", name, t.Mode(), t.RowCount())
		}

	case dumpCmd.FullCommand():
		return mgr.PrintTable(os.Stdout, *dumpTable)

	case fksCmd.FullCommand():
		for _, fk := range mgr.ForeignKeys() {
			fmt.Println(fk)
		}
	}
	return nil
}

func openStore(cfg *config.Config, log *logging.Logger) (storage.Store, error) {
	if cfg.Store == config.StoreLevelDB {
		return leveldbstore.New(cfg.SaveDir)
	}
	return filestore.New(cfg.SaveDir, filestore.WithLogger(log))
}

// demo rebuilds a small Items / Parent / Child set, renames a parent key and
// saves the result.
func demo(ctx context.Context, mgr *engine.Manager) error {
	for _, name := range []string{"Child", "Parent", "Items"} {
		if mgr.HasTable(name) {
			if err := mgr.RemoveTable(name); err != nil {
				return err
			}
		}
	}

	steps := []func() error{
		func() error { return mgr.CreateTable("Items") },
		func() error { return mgr.AddIntColumn("Items", "Value", 0) },
		func() error { return mgr.AddStringColumn("Items", "Name", "unnamed") },
		func() error { return mgr.AddVector3Column("Items", "Pos", cell.Vector3{}) },
		func() error { return insertDefaults(mgr, "Items", 3) },
		func() error { return mgr.SetCellInt("Items", "2", "Value", 42) },
		func() error { return mgr.SetCellString("Items", "2", "Name", "sword") },

		func() error { return mgr.CreateTable("Parent") },
		func() error { return mgr.AddStringColumn("Parent", "Name", "") },
		func() error { return insertDefaults(mgr, "Parent", 5) },
		func() error { return mgr.CreateTable("Child") },
		func() error { return mgr.AddIntColumn("Child", "ParentID", 0) },
		func() error { return mgr.AddForeignKeyConstraint("Child", "ParentID", "Parent") },
		func() error { return insertDefaults(mgr, "Child", 2) },
		func() error { return mgr.SetCellInt("Child", "1", "ParentID", 5) },
		func() error { return mgr.SetCellInt("Child", "2", "ParentID", 3) },
		func() error { return mgr.ChangePrimaryKey("Parent", "5", "9") },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	for _, name := range []string{"Items", "Parent", "Child"} {
		if err := mgr.PrintTable(os.Stdout, name); err != nil {
			return err
		}
		fmt.Println()
	}
	return mgr.SaveAll(ctx)
}

func insertDefaults(mgr *engine.Manager, tableName string, n int) error {
	for range n {
		if _, err := mgr.InsertRowAsDefault(tableName); err != nil {
			return err
		}
	}
	return nil
}
