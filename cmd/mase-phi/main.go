package main

import "github.com/siddsabata/auto-mase-phi/cmd/mase-phi/cmd"

func main() {
	cmd.Run()
}
