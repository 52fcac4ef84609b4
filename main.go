package main

import "github.com/kleoslabs/kleos/cmd"

func main() {
	cmd.Execute()
}
