package main

import (
	"fmt"
	sys "os"
)

func main() {
	fmt.Println("start")
	defer fmt.Println("deferred")

	func() {
		sys.Exit(2) // want "вызов os.Exit в функции main запрещён"
	}()

	sys.Exit(1) // want "вызов os.Exit в функции main запрещён"
}

func helper() {
	sys.Exit(3)
}

type server struct{}

func (server) main() {
	sys.Exit(4)
}
