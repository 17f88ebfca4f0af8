package main

import "github.com/kmori/sentinel-go/cmd"

func main() {
	cmd.Run()
}
