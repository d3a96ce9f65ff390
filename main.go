package main

import (
	_ "embed"

	"github.com/haierkeys/screen-connect-controller/cmd"
)

//go:embed config/config.yaml
var c string

func main() {
	cmd.Execute(c)
}
