package main

import "github.com/koustreak/dbagent/internal/cli"

func main() {
	cli.Execute()
}
