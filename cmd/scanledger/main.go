package main

import "scanledger/cli/cmd"

func main() {
	cmd.Execute()
}
