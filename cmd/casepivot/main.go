// Command casepivot pivots disease case files into state-by-year tables.
package main

import "github.com/couchcryptid/disease-map-service/internal/cli"

func main() {
	cli.Execute()
}
