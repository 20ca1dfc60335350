package main

import "MusicSphere/cmd"

func main() {
	cmd.Execute()
}
