package main

import "component-manager/internal/cli"

func main() {
	cli.Execute()
}
