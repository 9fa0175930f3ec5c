package main

import "os"

func main() { os.Exit(mainWithArgs(os.Args[1:])) }
