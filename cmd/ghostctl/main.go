package main

import "ghostline/cmd/ghostctl/cmd"

func main() {
	cmd.Execute()
}
