package main

import "tickettriage/internal/app"

func main() {
	app.Main()
}
