package main

import "github.com/kamusis/phenopick/cmd"

func main() {
	cmd.Execute()
}
