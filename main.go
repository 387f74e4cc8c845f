package main

import "media-digest/cmd"

func main() {
	cmd.Execute()
}
