// Carebook - appointment reminders for your health companion
package main

import (
	"carebook/cmd"
)

func main() {
	cmd.Execute()
}
