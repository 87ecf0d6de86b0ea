package main

import "github.com/shouni/zen-logo-kit/cmd"

func main() {
	cmd.Execute()
}
