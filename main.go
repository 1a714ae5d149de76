package main

import "warlockarena/cmd"

// WarlockArena 入口：命令行解析交给 cobra
func main() {
	cmd.Execute()
}
