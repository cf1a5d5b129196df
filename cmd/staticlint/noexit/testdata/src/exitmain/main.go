package main

import (
	"errors"
	"log"
	"os"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}

	go func() {
		os.Exit(1) // want `вызов os.Exit вне функции main запрещён`
	}()

	defer func() {
		log.Fatalf("%v", "boom") // want `вызов log.Fatalf вне функции main запрещён`
	}()

	os.Exit(0)
}

func run() error {
	if len(os.Args) > 5 {
		os.Exit(2) // want `вызов os.Exit вне функции main запрещён`
	}
	l := log.New(os.Stderr, "", 0)
	if len(os.Args) > 4 {
		l.Fatalln("too many") // want `вызов \(\*log.Logger\).Fatalln вне функции main запрещён`
	}
	return errors.New("failed")
}

type app struct{}

func (app) main() {
	os.Exit(3) // want `вызов os.Exit вне функции main запрещён`
}
