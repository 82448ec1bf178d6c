//go:build !darwin

package main

func main() { execute() }
