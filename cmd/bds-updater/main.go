package main

import "github.com/oshokin/bds-updater/cmd/bds-updater/cmd"

func main() {
	cmd.Execute()
}
