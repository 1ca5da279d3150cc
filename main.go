package main

import "github.com/verilink/profile-verify/cmd"

func main() {
	cmd.Execute()
}
