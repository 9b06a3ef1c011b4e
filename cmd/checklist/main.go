// Command checklist manages reusable checklists from the terminal and serves
// them over HTTP.
package main

import "github.com/mesh-intelligence/checklist/internal/cli"

func main() {
	cli.Execute()
}
