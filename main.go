package main

import "github.com/licensepro/backend/cmd"

func main() {
	cmd.Execute()
}
