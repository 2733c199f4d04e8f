package main

import "github.com/shrinex/bridge/cmd/bridge/cmd"

func main() {
	cmd.Execute()
}
