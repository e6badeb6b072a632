package main

import "github.com/pawtrail/pawtrail-go/cmd/pawtrail/cmd"

func main() {
	cmd.Execute()
}
