package main

import "github.com/crystaldolphin/gitcourier/cmd"

func main() {
	cmd.Execute()
}
