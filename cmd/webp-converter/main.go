package main

// main is the entry point for the webp-converter application.
func main() {
	Execute()
}
