package main

import "github.com/yeremiapane/table-reservations/cmd"

func main() {
	cmd.Execute()
}
