package main

import "github.com/cxxnode/cxxnode/cmd/cxxnode/internal"

func main() {
	internal.Execute()
}
