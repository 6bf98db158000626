package main

import "kakeibo/internal/cli"

func main() {
	cli.Execute()
}
