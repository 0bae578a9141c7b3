package main

import "github.com/RyanBlaney/sonido-resonance/cmd"

func main() {
	cmd.Execute()
}
