package main

import (
	dimg "github.com/0xa1bed0/dimg/internal/apps/dimg/cmds"
	"github.com/0xa1bed0/dimg/internal/logs"
	"github.com/0xa1bed0/dimg/internal/runtime"
)

func main() {
	logs.SetComponent("dimg")

	var execErr error

	rt := runtime.NewRuntime()
	defer rt.Finalize("dimg", "Type 'dimg help' to get help.", &execErr)

	execErr = dimg.Execute(rt)
}
