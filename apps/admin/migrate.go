package main

import (
	"github.com/gyermekkert/admin/storage/database"
)

var migrateRunFunc = database.RunMigrationCommand // mockable

func (cli *commandLine) migrate(args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	var arguments []string
	if len(args) > 1 {
		arguments = args[1:]
	}
	return migrateRunFunc(cli.db.DB, args[0], arguments...)
}
