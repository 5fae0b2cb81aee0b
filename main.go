package main

import "github.com/fwt-tools/fwt-dashboard-sync-go/cmd"

func main() {
	cmd.Execute()
}
