package main

import "github.com/tit-vcs/tit/cmd"

func main() {
	cmd.Execute()
}
