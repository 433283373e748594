package main

import "github.com/sekreterlik/sekreterlik/cmd"

func main() {
	cmd.Execute()
}
