package main

import "github.com/matchday-hq/matchday/cmd"

func main() {
	cmd.Execute()
}
