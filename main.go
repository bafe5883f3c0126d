package main

import "github.com/jlaustill/c-next-sub006/cmd"

func main() {
	cmd.Execute()
}
