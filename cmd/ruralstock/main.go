package main

import "ruralstock/cmd/ruralstock/commands"

func main() {
	commands.Execute()
}
