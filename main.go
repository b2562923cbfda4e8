package main

import "github.com/cvpratico/cv-builder/cmd"

func main() {
	cmd.Execute()
}
