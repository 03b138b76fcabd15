package main

import (
	"github.com/reelix-cli/reelix/cmd"
	"github.com/reelix-cli/reelix/config"
	"github.com/reelix-cli/reelix/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
