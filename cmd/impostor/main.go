package main

import "github.com/mcoot/impostor/internal/cli"

func main() {
	cli.Execute()
}
