package main

import (
	// Device zones must resolve on hosts without a system tz database.
	_ "time/tzdata"
)

func main() {
	Execute()
}
