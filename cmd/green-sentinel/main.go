package main

import "github.com/oshokin/green-sentinel/cmd/green-sentinel/cmd"

func main() {
	cmd.Execute()
}
