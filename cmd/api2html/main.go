// Package main is the entry point for api2html.
package main

func main() {
	Execute()
}
