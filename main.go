package main

import "github.com/healtfolio/healtfolio/cmd"

func main() {
	cmd.Execute()
}
