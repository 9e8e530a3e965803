package main

import (
	"os"

	"github.com/exaflow/retime/app/run"
	"github.com/exaflow/retime/pkg/cli"
	"github.com/exaflow/retime/pkg/driver"
)

func main() {
	c := cli.NewCLIFromRoot(run.NewCommand())

	err := c.Run()
	os.Exit(driver.ExitCode(err))
}
