package main

import (
	"dashwatch/internal/cli"
)

func main() {
	cli.Execute()
}
