// Command servicevirt serves virtualized REST and SOAP services.
package main

func main() {
	Execute()
}
