// Command netsimctl is the CLI client for netsimd's control API.
package main

import "github.com/go-netsim/netsimd/cmd/netsimctl/commands"

func main() {
	commands.Execute()
}
