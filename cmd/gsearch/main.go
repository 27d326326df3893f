// Command gsearch runs a typed search from the terminal and prints the
// ranked results.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(newCLI(os.Stdout)).Execute(); err != nil {
		os.Exit(1)
	}
}
