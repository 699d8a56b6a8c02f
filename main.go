package main

import "github.com/vibast-solutions/ms-go-reports/cmd"

func main() {
	cmd.Execute()
}
