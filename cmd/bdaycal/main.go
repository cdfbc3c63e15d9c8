package main

import "bdaycal/internal/cli"

func main() {
	cli.Execute()
}
