package main

import "github.com/belzebub40k/builder-mwu/cmd/mwu-packager/cmd"

func main() {
	cmd.Execute()
}
