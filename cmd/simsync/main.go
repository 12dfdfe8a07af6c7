package main

import (
	_ "github.com/go-kivik/kivik/v4/couchdb"

	"sim-sync/internal/cli"
)

func main() {
	cli.Execute()
}
