package main

import "github.com/samsaffron/course-llm/cmd"

func main() {
	cmd.Execute()
}
