package main

import "github.com/covenant-lang/covenant/cmd"

var version = "v0.1.0"

func main() {
	cmd.Execute(version)
}
