package main

import "github.com/narasimhan-me/SEOEngine.io-sub014/cmd"

func main() {
	cmd.Execute()
}
