package main

import "github.com/devrihan/xeno-shopify/cmd"

func main() {
	cmd.Execute()
}
