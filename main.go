package main

import "framegrab/cmd"

func main() {
	cmd.Execute()
}
