package main

import "github.com/belzebub40k/builder-mwu/cmd/mwu-updater/cmd"

func main() {
	cmd.Execute()
}
