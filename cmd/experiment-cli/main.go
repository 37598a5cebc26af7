package main

import (
	"os"

	"github.com/iot-lab/iotlab-cli/pkg/cli"
)

func main() {
	opts := &cli.Options{}
	os.Exit(cli.Execute(newRootCmd(opts), opts))
}
