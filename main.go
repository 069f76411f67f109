package main

import "github.com/ValentinKolb/dCAS/cmd"

func main() {
	cmd.Execute()
}
