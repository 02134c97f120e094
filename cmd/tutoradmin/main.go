package main

import "github.com/nimburion/tutoradmin/pkg/cli"

func main() {
	cli.Execute(cli.NewRootCommand(cli.Options{}))
}
