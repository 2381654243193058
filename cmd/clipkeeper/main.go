package main

import (
	"clipkeeper/cmd/clipkeeper/cmd"
)

func main() {
	cmd.Execute()
}
