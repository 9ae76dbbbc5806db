package main

import (
	"ctutimetable-backend/cmd/timetable-cli/cmd"
)

func main() {
	cmd.Execute()
}
