package main

import "github.com/xueqianLu/ethtrader/cmd/trader/cmd"

func main() {
	cmd.Execute()
}
