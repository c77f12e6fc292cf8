package main

import "github.com/campuscat/seatwatch/cmd"

func main() {
	cmd.Execute()
}
