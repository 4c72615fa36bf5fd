package main

import "github.com/jfmyers9/mpdpanel/cmd"

func main() {
	cmd.Execute()
}
