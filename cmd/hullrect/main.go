package main

import "github.com/MeKo-Tech/hullrect/cmd/hullrect/cmd"

func main() {
	cmd.Execute()
}
