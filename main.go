package main

import "github.com/ValentinKolb/shelf/cmd"

func main() {
	cmd.Execute()
}
