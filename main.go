// The main package for the reddit-extractor executable.
package main

import "github.com/sivamaran/reddit-scraper/cmd"

func main() {
	cmd.Execute()
}
