package main

import (
	"github.com/maxgio92/asketch/pkg/cmd"
)

func main() {
	cmd.Execute()
}
