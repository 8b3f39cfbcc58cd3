package main

import "github.com/frahmantamala/people-analytics/cmd"

func main() {
	cmd.Execute()
}
