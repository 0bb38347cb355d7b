package main

import "github.com/grantsuite/accessgate/cmd"

func main() {
	cmd.Execute()
}
