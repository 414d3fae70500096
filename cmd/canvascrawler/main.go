// Package main is the entrypoint for the canvascrawler binary.
package main

import "github.com/edtools/canvas-crawler/cmd"

func main() {
	cmd.Execute()
}
