package main

import "github.com/vibast-solutions/authsvc/cmd"

func main() {
	cmd.Execute()
}
