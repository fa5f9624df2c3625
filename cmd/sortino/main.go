package main

import "github.com/rkapoor/sortino/internal/cli"

func main() {
	cli.Execute()
}
