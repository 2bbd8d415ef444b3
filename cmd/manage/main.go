package main

import "github.com/dmitrijs2005/foodgram/cmd/manage/commands"

func main() {
	commands.Execute()
}
