package main

import "github.com/naka-gawa/gitlab-inventory/cmd"

func main() {
	cmd.Execute()
}
