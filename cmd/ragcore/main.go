// Package main is the entry point for the ragcore CLI.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/ragcore/cmd/ragcore/app"
)

func main() {
	app.Run()
}
