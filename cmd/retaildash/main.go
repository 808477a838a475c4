package main

import "retaildash/internal/cli"

func main() {
	cli.Execute()
}
