package main

import "github.com/oshokin/green-sentinel/cmd/sentinel-ctl/cmd"

func main() {
	cmd.Execute()
}
