package main

import "charge-costs/internal/cli"

func main() {
	cli.Execute()
}
