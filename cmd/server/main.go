package main

import "upr360/internal/app/server"

func main() {
	server.Run()
}
