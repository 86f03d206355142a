package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "kototsute-cli"
	app.Usage = "operator CLI for the kototsute custody daemon"
	app.Version = Version
	app.Flags = []cli.Flag{urlFlag, actorFlag}
	app.Commands = []*cli.Command{
		assetLockCmd, signerListCmd, prepareApprovalCmd,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
