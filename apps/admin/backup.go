package main

import (
	"context"
	"fmt"

	"github.com/gyermekkert/admin/core/backup"
)

func (cli *commandLine) backup() error {
	run, err := cli.backupSvc.Run(context.Background(), backup.KindManual)
	if err != nil {
		return err
	}
	fmt.Printf("backup %s done: %s (%d bytes)\n", run.ID, run.Path, run.SizeBytes)
	return nil
}
