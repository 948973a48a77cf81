package main

import "mindhaven/internal/servercmd"

func main() {
	servercmd.Execute()
}
