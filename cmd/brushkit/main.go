// Command brushkit manages brush presets and serves the brush channel API.
package main

func main() {
	Execute()
}
