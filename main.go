package main

import "tracy/cmd"

func main() {
	cmd.Execute()
}
