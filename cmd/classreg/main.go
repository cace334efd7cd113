// Command classreg inspects the classes packaged in JAR archives and class
// files.
package main

import "github.com/mesh-intelligence/classreg/internal/cli"

func main() {
	cli.Execute()
}
