// Command kgctl compiles, inspects and migrates the knowledge graph from the shell.
package main

func main() {
	Execute()
}
