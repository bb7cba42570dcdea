// The main package for the dataset-builder executable.
package main

import (
	"github.com/JakeFAU/news-archive-dataset/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
