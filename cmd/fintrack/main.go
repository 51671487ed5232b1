package main

import "fintrack/cmd/fintrack/cmd"

func main() {
	cmd.Execute()
}
