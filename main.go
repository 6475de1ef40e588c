package main

import "github.com/frahmantamala/feegateway/cmd"

func main() {
	cmd.Execute()
}
