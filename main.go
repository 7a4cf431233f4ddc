package main

import "topomap/cmd"

func main() {
	cmd.Execute()
}
