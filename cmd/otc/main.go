package main

import "github.com/OpenTraceLab/OpenTraceCircuit/cmd/otc/cmd"

func main() {
	cmd.Execute()
}
