package main

import "athenapt/internal/cli"

func main() {
	cli.Execute()
}
