//go:build windows
// +build windows

package winsema_test

import (
	"fmt"

	"github.com/richinsley/winsema"
)

// A semaphore created with two permits admits two holders; a third attempt
// must wait for one of them to post its permit back.
func Example() {
	sem, err := winsema.New(2)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer sem.Close()

	fmt.Println(sem)

	sem.Wait()
	sem.Wait()

	ok, _ := sem.TryWait()
	fmt.Println("third acquired:", ok)

	sem.Post()
	ok, _ = sem.TryWait()
	fmt.Println("after post acquired:", ok)

	// Output:
	// Semaphore(2)
	// third acquired: false
	// after post acquired: true
}
