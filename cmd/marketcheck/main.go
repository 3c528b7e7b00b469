package main

import "github.com/nroshak/marketcheck/internal/cli"

func main() {
	cli.Execute()
}
