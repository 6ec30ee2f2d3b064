package main

import "github.com/RyanBlaney/sonovision/cmd"

func main() {
	cmd.Execute()
}
