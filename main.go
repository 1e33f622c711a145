package main

import (
	"log"

	"github.com/krakentools/krakentools/cmd"
)

func main() {
	e := cmd.RootCmd.Execute()
	if e != nil {
		log.Fatal(e)
	}
}
