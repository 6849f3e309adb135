package main

import "github.com/belzebub40k/builder-mwu/cmd/mwu-build/cmd"

func main() {
	cmd.Execute()
}
