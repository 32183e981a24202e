// Demo server: serves the blog fixture schema on :8081 with batch loading,
// GraphiQL, and debug error messages enabled.
//
//	go run ./tests/blog/server
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/graphload/graphload/internal/eventbus"
	"github.com/graphload/graphload/tests/blog"
)

func main() {
	eventbus.Use(eventbus.New())

	store := blog.NewStore()
	h, err := store.NewHandler()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	addr := ":8081"
	fmt.Printf("blog demo listening on %s\n", addr)
	if err := http.ListenAndServe(addr, h); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
