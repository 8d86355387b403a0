// Package main provides the CLI entrypoint for notiface.
package main

func main() {
	Execute()
}
