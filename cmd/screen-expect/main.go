// Command screen-expect validates screens against expectation documents.
package main

import "github.com/devicelab-dev/screen-expect/pkg/cli"

func main() {
	cli.Execute()
}
