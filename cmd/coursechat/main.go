package main

import "github.com/lokhin/coursechat/internal/commands"

func main() {
	commands.Execute()
}
