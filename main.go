package main

import "github.com/maastricht-university/patient-pulse/cmd"

func main() {
	cmd.Execute()
}
