package main

import (
	"github.com/axellelanca/shortlink/cmd"
	_ "github.com/axellelanca/shortlink/cmd/cli"
	_ "github.com/axellelanca/shortlink/cmd/server"
)

func main() {
	cmd.Execute()
}
