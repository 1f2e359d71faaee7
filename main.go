package main

import "botflow/cmd"

func main() {
	cmd.Execute()
}
