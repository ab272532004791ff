package main

import "github.com/gigmile/receivables-service/internal/cli"

func main() {
	cli.Execute()
}
