package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/backup"
	"github.com/gyermekkert/admin/storage/database"
	"github.com/gyermekkert/admin/storage/filestore"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	files, err := filestore.NewLocalStore(conf)
	errAndDie(err)

	validate := validator.New()
	backupSvc := backup.NewService(
		database.NewBackupRepository(db),
		database.NewTableDumper(db),
		files,
		core.NewStdLogger(logger),
		validate,
	)

	// start CLI
	cli := commandLine{
		db:        db,
		usrRepo:   database.NewUserRepository(db),
		backupSvc: backupSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
