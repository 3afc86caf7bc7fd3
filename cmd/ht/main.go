package main

import (
	"fmt"
	"os"

	"github.com/nojima/httpbody"
)

func main() {
	if err := httpbody.Main(&httpbody.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
